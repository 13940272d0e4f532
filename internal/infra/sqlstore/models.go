package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"hunt-event-service/internal/domain"
)

// Row models mirror the event tables. Identifiers are PascalCase and quoted by bun.

type GroupRow struct {
	bun.BaseModel `bun:"table:Groups,alias:g"`

	GroupID         string `bun:"GroupId,pk"`
	Name            string `bun:"Name,notnull,unique"`
	PlayerCount     int    `bun:"PlayerCount,notnull"`
	ChallengesCount int    `bun:"ChallengesCount,notnull"`
	WasCleared      string `bun:"WasCleared,notnull"`
	SnackState      string `bun:"SnackState,notnull"`
}

type ChallengeRow struct {
	bun.BaseModel `bun:"table:Challenges,alias:c"`

	ChallengeID string    `bun:"ChallengeId,pk"`
	GroupID     string    `bun:"GroupId,notnull"`
	Difficulty  int       `bun:"Difficulty,notnull"`
	RoomID      string    `bun:"RoomId,notnull"`
	State       string    `bun:"State,notnull"`
	StartTime   time.Time `bun:"StartTime,notnull"`
}

type QuestionRow struct {
	bun.BaseModel `bun:"table:Questions,alias:q"`

	ID           string `bun:"ID,pk"`
	Difficulty   int    `bun:"Difficulty,notnull"`
	Question     string `bun:"Question,notnull"`
	Answer       string `bun:"Answer,notnull"`
	CollectCount int    `bun:"CollectCount,notnull,default:0"`
	WrongCount   int    `bun:"WrongCount,notnull,default:0"`
}

type AnsweredQuestionRow struct {
	bun.BaseModel `bun:"table:AnsweredQuestions,alias:aq"`

	ID               int64     `bun:"ID,pk,autoincrement"`
	GroupID          string    `bun:"GroupId,notnull"`
	QuestionID       string    `bun:"QuestionId,notnull"`
	Result           string    `bun:"Result,notnull"`
	ChallengerAnswer string    `bun:"ChallengerAnswer"`
	AnsweredAt       time.Time `bun:"AnsweredAt,notnull"`
}

type ClearTimeRow struct {
	bun.BaseModel `bun:"table:ClearTimes,alias:ct"`

	ID          int64     `bun:"ID,pk,autoincrement"`
	ElapsedTime int64     `bun:"ElapsedTime,notnull"`
	ChallengeID string    `bun:"ChallengeId,notnull"`
	Difficulty  int       `bun:"Difficulty,notnull"`
	GroupName   string    `bun:"GroupName,notnull"`
	ClearedAt   time.Time `bun:"ClearedAt,notnull"`
}

// challengeContextRow is the result of a challenge joined with its group.
type challengeContextRow struct {
	ChallengeID string    `bun:"ChallengeId"`
	GroupID     string    `bun:"GroupId"`
	GroupName   string    `bun:"GroupName"`
	Difficulty  int       `bun:"Difficulty"`
	State       string    `bun:"State"`
	StartTime   time.Time `bun:"StartTime"`
}

func (r GroupRow) toDomain() domain.Group {
	return domain.Group{
		GroupID:         r.GroupID,
		Name:            r.Name,
		PlayerCount:     r.PlayerCount,
		ChallengesCount: r.ChallengesCount,
		WasCleared:      r.WasCleared,
		SnackState:      r.SnackState,
	}
}

func (r QuestionRow) toDomain() domain.Question {
	return domain.Question{
		ID:           r.ID,
		Difficulty:   r.Difficulty,
		Question:     r.Question,
		Answer:       r.Answer,
		CollectCount: r.CollectCount,
		WrongCount:   r.WrongCount,
	}
}

func (r ClearTimeRow) toDomain() domain.ClearTime {
	return domain.ClearTime{
		ElapsedTime: r.ElapsedTime,
		ChallengeID: r.ChallengeID,
		Difficulty:  r.Difficulty,
		GroupName:   r.GroupName,
		ClearedAt:   r.ClearedAt,
	}
}

func (r challengeContextRow) toDomain() domain.ChallengeContext {
	return domain.ChallengeContext{
		ChallengeID: r.ChallengeID,
		GroupID:     r.GroupID,
		GroupName:   r.GroupName,
		Difficulty:  r.Difficulty,
		State:       r.State,
		StartTime:   r.StartTime,
	}
}
