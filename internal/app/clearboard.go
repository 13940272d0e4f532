package app

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"hunt-event-service/internal/domain"
	"hunt-event-service/internal/metrics"
)

// ClearBoard ranks clear times and fans out new clears to live subscribers.
type ClearBoard struct {
	clears ClearTimeRepository
	size   int
	now    func() time.Time
	sf     singleflight.Group

	mu          sync.Mutex
	subscribers map[chan domain.ClearTime]struct{}
}

func NewClearBoard(clears ClearTimeRepository, size int) *ClearBoard {
	if size <= 0 {
		size = 10
	}
	return &ClearBoard{
		clears:      clears,
		size:        size,
		now:         time.Now,
		subscribers: make(map[chan domain.ClearTime]struct{}),
	}
}

// Board returns the fastest clears at difficulty. Concurrent calls for the same
// difficulty share one store query.
func (b *ClearBoard) Board(ctx context.Context, difficulty int) (domain.ClearBoard, error) {
	return b.load(ctx, difficulty, false)
}

// Refresh is Board for callers that just learned of a new clear: it never joins
// a query that may have started before that clear was stored.
func (b *ClearBoard) Refresh(ctx context.Context, difficulty int) (domain.ClearBoard, error) {
	return b.load(ctx, difficulty, true)
}

func (b *ClearBoard) load(ctx context.Context, difficulty int, fresh bool) (domain.ClearBoard, error) {
	key := strconv.Itoa(difficulty)
	if fresh {
		b.sf.Forget(key)
	}
	// The query is shared, so one caller going away must not fail the others.
	shared := context.WithoutCancel(ctx)
	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		return b.query(shared, difficulty)
	})
	if err != nil {
		return domain.ClearBoard{}, err
	}
	return result.(domain.ClearBoard), nil
}

func (b *ClearBoard) query(ctx context.Context, difficulty int) (domain.ClearBoard, error) {
	clears, err := b.clears.TopClearTimes(ctx, difficulty, b.size)
	if err != nil {
		return domain.ClearBoard{}, domain.StoreError("load clear times", err)
	}
	entries := make([]domain.ClearBoardEntry, 0, len(clears))
	for i, c := range clears {
		entries = append(entries, domain.ClearBoardEntry{
			Rank:        i + 1,
			GroupName:   c.GroupName,
			ElapsedTime: c.ElapsedTime,
			ChallengeID: c.ChallengeID,
			ClearedAt:   c.ClearedAt,
		})
	}
	return domain.ClearBoard{
		Difficulty: difficulty,
		Entries:    entries,
		UpdatedAt:  b.now().UTC(),
	}, nil
}

// Subscribe returns a channel of newly recorded clears.
// The caller must invoke the returned cancel function to avoid leaks.
func (b *ClearBoard) Subscribe() (<-chan domain.ClearTime, func()) {
	ch := make(chan domain.ClearTime, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	metrics.FeedSubscribers.Inc()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
			metrics.FeedSubscribers.Dec()
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ct to every subscriber without blocking.
func (b *ClearBoard) Publish(ct domain.ClearTime) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- ct:
		default:
			// Slow subscriber: drop its oldest pending clear to make room.
			select {
			case <-ch:
			default:
			}
			ch <- ct
		}
	}
}
