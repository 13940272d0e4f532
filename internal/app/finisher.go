package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"hunt-event-service/internal/domain"
	"hunt-event-service/internal/metrics"
)

// FinishCommand closes the active challenge of a room.
type FinishCommand struct {
	RoomCode string `json:"-" validate:"required"`
	Result   string `json:"result" validate:"required,oneof=Cleared Failed"`
}

var finishReasons = map[string]string{
	"RoomCode": "Room code is required",
	"Result":   `Invalid result value. Must be "Cleared" or "Failed".`,
}

// ChallengeFinisher records the outcome of a room.
type ChallengeFinisher struct {
	challenges ChallengeRepository
	groups     GroupRepository
	clears     ClearTimeRepository
	rooms      RoomDirectory
	publisher  ClearPublisher
	now        func() time.Time
	log        logrus.FieldLogger
}

// NewChallengeFinisher builds a ChallengeFinisher. rooms and publisher may be nil.
func NewChallengeFinisher(store Store, rooms RoomDirectory, publisher ClearPublisher, log logrus.FieldLogger) *ChallengeFinisher {
	return &ChallengeFinisher{
		challenges: store,
		groups:     store,
		clears:     store,
		rooms:      rooms,
		publisher:  publisher,
		now:        time.Now,
		log:        log,
	}
}

// WithClock replaces the time source; used by tests.
func (f *ChallengeFinisher) WithClock(now func() time.Time) *ChallengeFinisher {
	f.now = now
	return f
}

// Finish resolves the pending challenge of cmd.RoomCode and moves it to cmd.Result.
// On a clear it also grants group rewards and records the clear time. Writes are
// issued one by one; an error part way leaves earlier writes in place.
func (f *ChallengeFinisher) Finish(ctx context.Context, cmd FinishCommand) (domain.ChallengeContext, error) {
	if err := validateCommand(cmd, "Invalid request", finishReasons); err != nil {
		return domain.ChallengeContext{}, err
	}

	challenge, err := f.resolveRoom(ctx, cmd.RoomCode)
	if err != nil {
		return domain.ChallengeContext{}, err
	}
	log := f.log.WithFields(logrus.Fields{
		"room":         cmd.RoomCode,
		"challenge_id": challenge.ChallengeID,
		"result":       cmd.Result,
	})

	if err := f.challenges.UpdateChallengeState(ctx, challenge.ChallengeID, cmd.Result); err != nil {
		log.WithError(err).Error("update challenge state failed")
		return challenge, domain.StoreError("update challenge state", err)
	}
	challenge.State = cmd.Result

	if cmd.Result == domain.StateCleared {
		if err := f.grantRewards(ctx, challenge); err != nil {
			log.WithError(err).Error("grant rewards failed")
			return challenge, err
		}
		if err := f.recordClearTime(ctx, challenge); err != nil {
			log.WithError(err).Error("record clear time failed")
			return challenge, err
		}
	}

	if f.rooms != nil {
		if err := f.rooms.Release(ctx, cmd.RoomCode, challenge.ChallengeID); err != nil {
			log.WithError(err).Warn("release room marker failed")
		}
	}
	metrics.ChallengesFinished.WithLabelValues(cmd.Result).Inc()
	log.Info("challenge finished")
	return challenge, nil
}

// resolveRoom finds the challenge a room is playing. The room directory is asked
// first; its answer only counts if the challenge is still pending.
func (f *ChallengeFinisher) resolveRoom(ctx context.Context, roomCode string) (domain.ChallengeContext, error) {
	if f.rooms != nil {
		challengeID, err := f.rooms.ActiveChallenge(ctx, roomCode)
		switch {
		case err == nil:
			challenge, err := f.challenges.ChallengeContext(ctx, challengeID)
			if err == nil && challenge.State == domain.StatePending {
				return challenge, nil
			}
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return domain.ChallengeContext{}, domain.StoreError("load challenge", err)
			}
		case errors.Is(err, domain.ErrNotFound):
		default:
			f.log.WithError(err).WithField("room", roomCode).Warn("room directory lookup failed")
		}
	}

	challenge, err := f.challenges.PendingChallengeInRoom(ctx, roomCode)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ChallengeContext{}, fmt.Errorf("no active challenge for room %q: %w", roomCode, domain.ErrNotFound)
	}
	if err != nil {
		return domain.ChallengeContext{}, domain.StoreError("resolve room", err)
	}
	return challenge, nil
}

func (f *ChallengeFinisher) grantRewards(ctx context.Context, challenge domain.ChallengeContext) error {
	group, err := f.groups.GroupByID(ctx, challenge.GroupID)
	if err != nil {
		return &domain.DatabaseError{Op: "load group", Err: err}
	}
	if !group.ApplyClear(domain.SnackCount(challenge.Difficulty)) {
		return nil
	}
	if err := f.groups.UpdateGroupRewards(ctx, group.GroupID, group.WasCleared, group.SnackState); err != nil {
		return domain.StoreError("update group rewards", err)
	}
	return nil
}

func (f *ChallengeFinisher) recordClearTime(ctx context.Context, challenge domain.ChallengeContext) error {
	start, err := f.challenges.ChallengeStartTime(ctx, challenge.ChallengeID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.DatabaseError{Op: "load challenge start time", Err: fmt.Errorf("challenge not found: %w", err)}
	}
	if err != nil {
		return domain.StoreError("load challenge start time", err)
	}

	now := f.now().UTC()
	elapsed := int64(now.Sub(start) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	ct := domain.ClearTime{
		ElapsedTime: elapsed,
		ChallengeID: challenge.ChallengeID,
		Difficulty:  challenge.Difficulty,
		GroupName:   challenge.GroupName,
		ClearedAt:   now,
	}
	if err := f.clears.InsertClearTime(ctx, ct); err != nil {
		return domain.StoreError("insert clear time", err)
	}
	if f.publisher != nil {
		f.publisher.Publish(ct)
	}
	return nil
}
