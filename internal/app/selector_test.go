package app_test

import (
	"context"
	"errors"
	"testing"

	"hunt-event-service/internal/app"
	"hunt-event-service/internal/domain"
	"hunt-event-service/internal/infra/memory"
	"hunt-event-service/internal/logging"
)

func TestSelectSkipsAnsweredQuestions(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t, questionsAt(1, "q1", "q2")...)
	_ = store.InsertAnsweredQuestion(ctx, domain.AnsweredQuestion{GroupID: "g1", QuestionID: "q1", Result: domain.ResultCorrect})
	selector := app.NewQuestionSelector(store, 20, logging.Discard())

	for i := 0; i < 25; i++ {
		q, err := selector.Select(ctx, "g1", 1)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if q.ID != "q2" {
			t.Fatalf("expected q2, got %s", q.ID)
		}
	}

	// Another group still sees the whole level.
	q, err := selector.Select(ctx, "g2", 1)
	if err != nil || (q.ID != "q1" && q.ID != "q2") {
		t.Fatalf("unexpected pick for g2: %+v err=%v", q, err)
	}
}

func TestSelectReportsExhaustedLevel(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t, questionsAt(1, "q1")...)
	_ = store.InsertAnsweredQuestion(ctx, domain.AnsweredQuestion{GroupID: "g1", QuestionID: "q1", Result: domain.ResultWrong})
	selector := app.NewQuestionSelector(store, 20, logging.Discard())

	if _, err := selector.Select(ctx, "g1", 1); !errors.Is(err, domain.ErrNoAvailableQuestions) {
		t.Fatalf("expected no available questions, got %v", err)
	}
}

func TestSelectReportsEmptyLevel(t *testing.T) {
	selector := app.NewQuestionSelector(memory.NewStore(), 20, logging.Discard())

	_, err := selector.Select(context.Background(), "g1", 3)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// scriptedQuestions draws questions in a fixed order and cannot filter answered
// questions itself, so the selector falls back to sampling.
type scriptedQuestions struct {
	draws    []domain.Question
	answered map[string]bool
	calls    int
	drawErr  error
}

func (s *scriptedQuestions) RandomQuestion(context.Context, int) (domain.Question, error) {
	if s.drawErr != nil {
		return domain.Question{}, s.drawErr
	}
	if len(s.draws) == 0 {
		return domain.Question{}, domain.ErrNotFound
	}
	q := s.draws[s.calls%len(s.draws)]
	s.calls++
	return q, nil
}

func (s *scriptedQuestions) HasAnswered(_ context.Context, _ string, questionID string) (bool, error) {
	return s.answered[questionID], nil
}

func (s *scriptedQuestions) CountAvailableQuestions(context.Context, string, int) (int, error) {
	return 0, nil
}

func TestSelectSamplingRedrawsAnsweredQuestions(t *testing.T) {
	repo := &scriptedQuestions{
		draws:    questionsAt(1, "q1", "q1", "q2"),
		answered: map[string]bool{"q1": true},
	}
	selector := app.NewQuestionSelector(repo, 20, logging.Discard())

	q, err := selector.Select(context.Background(), "g1", 1)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if q.ID != "q2" || repo.calls != 3 {
		t.Fatalf("expected q2 after 3 draws, got %s after %d", q.ID, repo.calls)
	}
}

func TestSelectSamplingGivesUpAfterMaxDraws(t *testing.T) {
	repo := &scriptedQuestions{
		draws:    questionsAt(1, "q1"),
		answered: map[string]bool{"q1": true},
	}
	selector := app.NewQuestionSelector(repo, 20, logging.Discard())

	if _, err := selector.Select(context.Background(), "g1", 1); !errors.Is(err, domain.ErrNoAvailableQuestions) {
		t.Fatalf("expected no available questions, got %v", err)
	}
	if repo.calls != 20 {
		t.Fatalf("expected 20 draws, got %d", repo.calls)
	}
}

func TestSelectSamplingEmptyLevelAndStorageFailure(t *testing.T) {
	selector := app.NewQuestionSelector(&scriptedQuestions{}, 20, logging.Discard())
	if _, err := selector.Select(context.Background(), "g1", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	selector = app.NewQuestionSelector(&scriptedQuestions{drawErr: errBoom}, 20, logging.Discard())
	_, err := selector.Select(context.Background(), "g1", 1)
	if dbErr := requireDatabaseError(t, err); !errors.Is(dbErr, errBoom) {
		t.Fatalf("expected wrapped storage error, got %v", dbErr)
	}
}
