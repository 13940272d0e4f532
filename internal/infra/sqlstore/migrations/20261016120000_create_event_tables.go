package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"hunt-event-service/internal/infra/sqlstore"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			models := []interface{}{
				(*sqlstore.GroupRow)(nil),
				(*sqlstore.ChallengeRow)(nil),
				(*sqlstore.QuestionRow)(nil),
				(*sqlstore.AnsweredQuestionRow)(nil),
				(*sqlstore.ClearTimeRow)(nil),
			}
			for _, model := range models {
				if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("create table: %w", err)
				}
			}

			indexes := []*bun.CreateIndexQuery{
				db.NewCreateIndex().
					Model((*sqlstore.ChallengeRow)(nil)).
					Index("challenges_room_state_idx").
					Column("RoomId", "State"),
				db.NewCreateIndex().
					Model((*sqlstore.AnsweredQuestionRow)(nil)).
					Index("answered_questions_group_question_idx").
					Column("GroupId", "QuestionId"),
				db.NewCreateIndex().
					Model((*sqlstore.QuestionRow)(nil)).
					Index("questions_difficulty_idx").
					Column("Difficulty"),
				db.NewCreateIndex().
					Model((*sqlstore.ClearTimeRow)(nil)).
					Index("clear_times_difficulty_elapsed_idx").
					Column("Difficulty", "ElapsedTime"),
			}
			for _, idx := range indexes {
				if _, err := idx.IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("create index: %w", err)
				}
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			models := []interface{}{
				(*sqlstore.ClearTimeRow)(nil),
				(*sqlstore.AnsweredQuestionRow)(nil),
				(*sqlstore.QuestionRow)(nil),
				(*sqlstore.ChallengeRow)(nil),
				(*sqlstore.GroupRow)(nil),
			}
			for _, model := range models {
				if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
