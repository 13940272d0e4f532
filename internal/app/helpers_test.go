package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hunt-event-service/internal/domain"
	"hunt-event-service/internal/infra/memory"
)

var errBoom = errors.New("boom")

func newSeededStore(t *testing.T, questions ...domain.Question) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	if _, err := store.UpsertQuestions(context.Background(), questions); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
	return store
}

func questionsAt(difficulty int, ids ...string) []domain.Question {
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Question{ID: id, Difficulty: difficulty, Question: "prompt " + id, Answer: "answer " + id})
	}
	return out
}

func intPtr(v int) *int { return &v }

// fakeRooms is a map-backed room directory.
type fakeRooms struct {
	mu      sync.Mutex
	rooms   map[string]string
	failGet bool
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{rooms: make(map[string]string)}
}

func (r *fakeRooms) Assign(_ context.Context, roomID, challengeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[roomID] = challengeID
	return nil
}

func (r *fakeRooms) ActiveChallenge(_ context.Context, roomID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet {
		return "", errBoom
	}
	id, ok := r.rooms[roomID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

func (r *fakeRooms) Release(_ context.Context, roomID, challengeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[roomID] == challengeID {
		delete(r.rooms, roomID)
	}
	return nil
}

func (r *fakeRooms) get(roomID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.rooms[roomID]
	return id, ok
}

// recordingPublisher keeps every published clear.
type recordingPublisher struct {
	mu     sync.Mutex
	clears []domain.ClearTime
}

func (p *recordingPublisher) Publish(ct domain.ClearTime) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clears = append(p.clears, ct)
}

func (p *recordingPublisher) published() []domain.ClearTime {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ClearTime(nil), p.clears...)
}

func requireValidation(t *testing.T, err error, reason string) {
	t.Helper()
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error %q, got %v", reason, err)
	}
	if vErr.Reason != reason {
		t.Fatalf("expected reason %q, got %q", reason, vErr.Reason)
	}
}

func requireDatabaseError(t *testing.T, err error) *domain.DatabaseError {
	t.Helper()
	var dbErr *domain.DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected database error, got %v", err)
	}
	return dbErr
}
