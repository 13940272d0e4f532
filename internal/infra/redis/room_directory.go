package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"hunt-event-service/internal/domain"
)

// releaseScript deletes the room marker only while it still points at the
// challenge being released.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RoomDirectory keeps a room -> active challenge marker in Redis.
// Markers expire after ttl so an abandoned room does not point at a stale
// challenge forever.
type RoomDirectory struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomDirectory(client *redis.Client, ttl time.Duration) *RoomDirectory {
	return &RoomDirectory{client: client, ttl: ttl}
}

func (d *RoomDirectory) Assign(ctx context.Context, roomID, challengeID string) error {
	return d.client.Set(ctx, d.key(roomID), challengeID, d.ttl).Err()
}

func (d *RoomDirectory) ActiveChallenge(ctx context.Context, roomID string) (string, error) {
	challengeID, err := d.client.Get(ctx, d.key(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return challengeID, nil
}

func (d *RoomDirectory) Release(ctx context.Context, roomID, challengeID string) error {
	return releaseScript.Run(ctx, d.client, []string{d.key(roomID)}, challengeID).Err()
}

func (d *RoomDirectory) key(roomID string) string {
	return "room:" + roomID + ":challenge"
}
