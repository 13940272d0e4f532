package app

import (
	"context"
	"time"

	"hunt-event-service/internal/domain"
)

// Stores return domain.ErrNotFound for missing rows and raw driver errors otherwise.

// AnswerRepository persists answer events and question counters.
type AnswerRepository interface {
	InsertAnsweredQuestion(ctx context.Context, answer domain.AnsweredQuestion) error
	// IncrementQuestionCounter bumps counter by one in a single statement.
	IncrementQuestionCounter(ctx context.Context, questionID string, counter domain.Counter) error
}

// QuestionRepository reads the question catalog.
type QuestionRepository interface {
	RandomQuestion(ctx context.Context, difficulty int) (domain.Question, error)
	HasAnswered(ctx context.Context, groupID, questionID string) (bool, error)
	// CountAvailableQuestions counts questions at difficulty that the group has not
	// answered with a terminal result.
	CountAvailableQuestions(ctx context.Context, groupID string, difficulty int) (int, error)
}

// UnansweredQuestionFinder is implemented by stores that can exclude answered
// questions in the query itself.
type UnansweredQuestionFinder interface {
	RandomUnansweredQuestion(ctx context.Context, groupID string, difficulty int) (domain.Question, error)
}

// GroupRepository stores groups.
type GroupRepository interface {
	GroupByName(ctx context.Context, name string) (domain.Group, error)
	GroupByID(ctx context.Context, groupID string) (domain.Group, error)
	CreateGroup(ctx context.Context, group domain.Group) error
	IncrementChallengesCount(ctx context.Context, groupID string) error
	UpdateGroupRewards(ctx context.Context, groupID, wasCleared, snackState string) error
}

// ChallengeRepository stores challenges.
type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, challenge domain.Challenge) error
	ChallengeContext(ctx context.Context, challengeID string) (domain.ChallengeContext, error)
	// PendingChallengeInRoom returns the most recently started pending challenge of a room.
	PendingChallengeInRoom(ctx context.Context, roomID string) (domain.ChallengeContext, error)
	UpdateChallengeState(ctx context.Context, challengeID, state string) error
	ChallengeStartTime(ctx context.Context, challengeID string) (time.Time, error)
}

// ClearTimeRepository stores clear times.
type ClearTimeRepository interface {
	InsertClearTime(ctx context.Context, ct domain.ClearTime) error
	// TopClearTimes returns the fastest clears at difficulty, fastest first.
	TopClearTimes(ctx context.Context, difficulty, limit int) ([]domain.ClearTime, error)
}

// Store is everything the service needs from a backend.
type Store interface {
	AnswerRepository
	QuestionRepository
	GroupRepository
	ChallengeRepository
	ClearTimeRepository
}

// RoomDirectory remembers which challenge currently occupies a room. It is a hint:
// callers fall back to the store when it misses or fails.
type RoomDirectory interface {
	Assign(ctx context.Context, roomID, challengeID string) error
	ActiveChallenge(ctx context.Context, roomID string) (string, error)
	Release(ctx context.Context, roomID, challengeID string) error
}

// ClearPublisher receives clear times as they are recorded.
type ClearPublisher interface {
	Publish(ct domain.ClearTime)
}
