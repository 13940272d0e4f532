package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"hunt-event-service/internal/domain"
)

// Store implements the app repositories on top of bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *bun.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) InsertAnsweredQuestion(ctx context.Context, answer domain.AnsweredQuestion) error {
	row := AnsweredQuestionRow{
		GroupID:          answer.GroupID,
		QuestionID:       answer.QuestionID,
		Result:           answer.Result,
		ChallengerAnswer: answer.ChallengerAnswer,
		AnsweredAt:       answer.AnsweredAt,
	}
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return err
}

func (s *Store) IncrementQuestionCounter(ctx context.Context, questionID string, counter domain.Counter) error {
	if counter != domain.CounterCollect && counter != domain.CounterWrong {
		return fmt.Errorf("unknown question counter %q", counter)
	}
	col := bun.Ident(string(counter))
	_, err := s.db.NewUpdate().
		Model((*QuestionRow)(nil)).
		Set("? = ? + 1", col, col).
		Where(`"ID" = ?`, questionID).
		Exec(ctx)
	return err
}

func (s *Store) RandomQuestion(ctx context.Context, difficulty int) (domain.Question, error) {
	var row QuestionRow
	err := s.db.NewSelect().
		Model(&row).
		Where(`q."Difficulty" = ?`, difficulty).
		OrderExpr("RANDOM()").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Question{}, notFound(err)
	}
	return row.toDomain(), nil
}

// RandomUnansweredQuestion excludes questions the group has any answer for in the
// same query, so no retry loop is needed.
func (s *Store) RandomUnansweredQuestion(ctx context.Context, groupID string, difficulty int) (domain.Question, error) {
	answered := s.db.NewSelect().
		TableExpr(`"AnsweredQuestions" AS aq`).
		ColumnExpr("1").
		Where(`aq."QuestionId" = q."ID"`).
		Where(`aq."GroupId" = ?`, groupID)

	var row QuestionRow
	err := s.db.NewSelect().
		Model(&row).
		Where(`q."Difficulty" = ?`, difficulty).
		Where("NOT EXISTS (?)", answered).
		OrderExpr("RANDOM()").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Question{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) HasAnswered(ctx context.Context, groupID, questionID string) (bool, error) {
	return s.db.NewSelect().
		Model((*AnsweredQuestionRow)(nil)).
		Where(`aq."GroupId" = ?`, groupID).
		Where(`aq."QuestionId" = ?`, questionID).
		Exists(ctx)
}

func (s *Store) CountAvailableQuestions(ctx context.Context, groupID string, difficulty int) (int, error) {
	return s.db.NewSelect().
		Model((*QuestionRow)(nil)).
		Join(`LEFT JOIN "AnsweredQuestions" AS aq`).
		JoinOn(`aq."QuestionId" = q."ID"`).
		JoinOn(`aq."GroupId" = ?`, groupID).
		JoinOn(`aq."Result" IN (?)`, bun.In(domain.TerminalResults)).
		Where(`q."Difficulty" = ?`, difficulty).
		Where(`aq."QuestionId" IS NULL`).
		Count(ctx)
}

func (s *Store) GroupByName(ctx context.Context, name string) (domain.Group, error) {
	var row GroupRow
	if err := s.db.NewSelect().Model(&row).Where(`g."Name" = ?`, name).Limit(1).Scan(ctx); err != nil {
		return domain.Group{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) GroupByID(ctx context.Context, groupID string) (domain.Group, error) {
	var row GroupRow
	if err := s.db.NewSelect().Model(&row).Where(`g."GroupId" = ?`, groupID).Limit(1).Scan(ctx); err != nil {
		return domain.Group{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateGroup(ctx context.Context, group domain.Group) error {
	row := GroupRow{
		GroupID:         group.GroupID,
		Name:            group.Name,
		PlayerCount:     group.PlayerCount,
		ChallengesCount: group.ChallengesCount,
		WasCleared:      group.WasCleared,
		SnackState:      group.SnackState,
	}
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return err
}

func (s *Store) IncrementChallengesCount(ctx context.Context, groupID string) error {
	_, err := s.db.NewUpdate().
		Model((*GroupRow)(nil)).
		Set(`"ChallengesCount" = "ChallengesCount" + 1`).
		Where(`"GroupId" = ?`, groupID).
		Exec(ctx)
	return err
}

func (s *Store) UpdateGroupRewards(ctx context.Context, groupID, wasCleared, snackState string) error {
	_, err := s.db.NewUpdate().
		Model((*GroupRow)(nil)).
		Set(`"WasCleared" = ?`, wasCleared).
		Set(`"SnackState" = ?`, snackState).
		Where(`"GroupId" = ?`, groupID).
		Exec(ctx)
	return err
}

func (s *Store) CreateChallenge(ctx context.Context, challenge domain.Challenge) error {
	row := ChallengeRow{
		ChallengeID: challenge.ChallengeID,
		GroupID:     challenge.GroupID,
		Difficulty:  challenge.Difficulty,
		RoomID:      challenge.RoomID,
		State:       challenge.State,
		StartTime:   challenge.StartTime,
	}
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return err
}

func (s *Store) ChallengeContext(ctx context.Context, challengeID string) (domain.ChallengeContext, error) {
	var row challengeContextRow
	err := s.challengeContexts().
		Where(`c."ChallengeId" = ?`, challengeID).
		Limit(1).
		Scan(ctx, &row)
	if err != nil {
		return domain.ChallengeContext{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) PendingChallengeInRoom(ctx context.Context, roomID string) (domain.ChallengeContext, error) {
	var row challengeContextRow
	err := s.challengeContexts().
		Where(`c."RoomId" = ?`, roomID).
		Where(`c."State" = ?`, domain.StatePending).
		OrderExpr(`c."StartTime" DESC`).
		Limit(1).
		Scan(ctx, &row)
	if err != nil {
		return domain.ChallengeContext{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateChallengeState(ctx context.Context, challengeID, state string) error {
	_, err := s.db.NewUpdate().
		Model((*ChallengeRow)(nil)).
		Set(`"State" = ?`, state).
		Where(`"ChallengeId" = ?`, challengeID).
		Exec(ctx)
	return err
}

func (s *Store) ChallengeStartTime(ctx context.Context, challengeID string) (time.Time, error) {
	var row ChallengeRow
	err := s.db.NewSelect().
		Model(&row).
		Column("StartTime").
		Where(`c."ChallengeId" = ?`, challengeID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return time.Time{}, notFound(err)
	}
	return row.StartTime, nil
}

func (s *Store) InsertClearTime(ctx context.Context, ct domain.ClearTime) error {
	row := ClearTimeRow{
		ElapsedTime: ct.ElapsedTime,
		ChallengeID: ct.ChallengeID,
		Difficulty:  ct.Difficulty,
		GroupName:   ct.GroupName,
		ClearedAt:   ct.ClearedAt,
	}
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return err
}

func (s *Store) TopClearTimes(ctx context.Context, difficulty, limit int) ([]domain.ClearTime, error) {
	var rows []ClearTimeRow
	q := s.db.NewSelect().
		Model(&rows).
		Where(`ct."Difficulty" = ?`, difficulty).
		OrderExpr(`ct."ElapsedTime" ASC, ct."ClearedAt" ASC`)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.ClearTime, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// UpsertQuestions writes catalog entries. Prompt, answer and difficulty are
// replaced on conflict; the counters keep their stored values.
func (s *Store) UpsertQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	rows := make([]QuestionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, QuestionRow{
			ID:           q.ID,
			Difficulty:   q.Difficulty,
			Question:     q.Question,
			Answer:       q.Answer,
			CollectCount: q.CollectCount,
			WrongCount:   q.WrongCount,
		})
	}
	_, err := s.db.NewInsert().
		Model(&rows).
		On(`CONFLICT ("ID") DO UPDATE`).
		Set(`"Difficulty" = EXCLUDED."Difficulty"`).
		Set(`"Question" = EXCLUDED."Question"`).
		Set(`"Answer" = EXCLUDED."Answer"`).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsert questions: %w", err)
	}
	return len(rows), nil
}

func (s *Store) challengeContexts() *bun.SelectQuery {
	return s.db.NewSelect().
		TableExpr(`"Challenges" AS c`).
		ColumnExpr(`c."ChallengeId", c."GroupId", g."Name" AS "GroupName", c."Difficulty", c."State", c."StartTime"`).
		Join(`JOIN "Groups" AS g ON g."GroupId" = c."GroupId"`)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
