package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"hunt-event-service/internal/domain"
	"hunt-event-service/internal/metrics"
)

// RegisterAnswerCommand is one answer reported by a challenger client.
type RegisterAnswerCommand struct {
	GroupID          string `json:"GroupId" validate:"required"`
	QuestionID       string `json:"QuestionId" validate:"required"`
	Result           string `json:"Result" validate:"required"`
	ChallengerAnswer string `json:"ChallengerAnswer"`
}

// AnswerRegistrar records answers and keeps question counters current.
type AnswerRegistrar struct {
	answers         AnswerRepository
	finalQuestionID string
	now             func() time.Time
	log             logrus.FieldLogger
}

// NewAnswerRegistrar builds an AnswerRegistrar. Answers to finalQuestionID only
// bump counters; that question is never written to the answer log.
func NewAnswerRegistrar(answers AnswerRepository, finalQuestionID string, log logrus.FieldLogger) *AnswerRegistrar {
	return &AnswerRegistrar{
		answers:         answers,
		finalQuestionID: finalQuestionID,
		now:             time.Now,
		log:             log,
	}
}

// Register appends the answer event and bumps the matching question counter.
// The two writes are independent; a failure in the second leaves the first in place.
func (r *AnswerRegistrar) Register(ctx context.Context, cmd RegisterAnswerCommand) (domain.Counter, error) {
	if err := validateCommand(cmd, "Invalid data", nil); err != nil {
		return "", err
	}

	if cmd.QuestionID != r.finalQuestionID {
		err := r.answers.InsertAnsweredQuestion(ctx, domain.AnsweredQuestion{
			GroupID:          cmd.GroupID,
			QuestionID:       cmd.QuestionID,
			Result:           cmd.Result,
			ChallengerAnswer: cmd.ChallengerAnswer,
			AnsweredAt:       r.now().UTC(),
		})
		if err != nil {
			r.log.WithError(err).WithField("group_id", cmd.GroupID).Error("insert answered question failed")
			return "", domain.StoreError("insert answered question", err)
		}
	}

	counter := domain.CounterFor(cmd.Result)
	if err := r.answers.IncrementQuestionCounter(ctx, cmd.QuestionID, counter); err != nil {
		r.log.WithError(err).WithField("question_id", cmd.QuestionID).Error("update question counter failed")
		return "", domain.StoreError("increment question counter", err)
	}
	metrics.AnswersRegistered.WithLabelValues(string(counter)).Inc()
	return counter, nil
}
