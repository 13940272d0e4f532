package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"hunt-event-service/internal/domain"
	"hunt-event-service/internal/metrics"
)

// QuestionSelector hands out questions a group has not seen yet.
type QuestionSelector struct {
	questions QuestionRepository
	maxDraws  int
	log       logrus.FieldLogger
}

// NewQuestionSelector builds a QuestionSelector. maxDraws bounds the sampling
// fallback used when the repository cannot filter answered questions itself.
func NewQuestionSelector(questions QuestionRepository, maxDraws int, log logrus.FieldLogger) *QuestionSelector {
	if maxDraws <= 0 {
		maxDraws = 20
	}
	return &QuestionSelector{questions: questions, maxDraws: maxDraws, log: log}
}

// Select returns a random question at level with no answer from groupID.
// It fails with domain.ErrNotFound when the level has no questions at all and
// with domain.ErrNoAvailableQuestions when all of them were answered.
func (s *QuestionSelector) Select(ctx context.Context, groupID string, level int) (domain.Question, error) {
	finder, ok := s.questions.(UnansweredQuestionFinder)
	if !ok {
		return s.sample(ctx, groupID, level)
	}

	question, err := finder.RandomUnansweredQuestion(ctx, groupID, level)
	if err == nil {
		return question, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Question{}, domain.StoreError("select unanswered question", err)
	}

	if _, err := s.questions.RandomQuestion(ctx, level); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Question{}, fmt.Errorf("no question at level %d: %w", level, domain.ErrNotFound)
		}
		return domain.Question{}, domain.StoreError("select question", err)
	}
	return domain.Question{}, domain.ErrNoAvailableQuestions
}

// sample draws random questions until it finds one the group has not answered.
func (s *QuestionSelector) sample(ctx context.Context, groupID string, level int) (domain.Question, error) {
	for attempt := 1; attempt <= s.maxDraws; attempt++ {
		metrics.QuestionDraws.Inc()
		question, err := s.questions.RandomQuestion(ctx, level)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Question{}, fmt.Errorf("no question at level %d: %w", level, domain.ErrNotFound)
		}
		if err != nil {
			return domain.Question{}, domain.StoreError("select question", err)
		}

		answered, err := s.questions.HasAnswered(ctx, groupID, question.ID)
		if err != nil {
			return domain.Question{}, domain.StoreError("check answered question", err)
		}
		if !answered {
			return question, nil
		}
		s.log.WithFields(logrus.Fields{
			"question_id": question.ID,
			"attempt":     attempt,
		}).Debug("question already answered, drawing again")
	}
	return domain.Question{}, domain.ErrNoAvailableQuestions
}
