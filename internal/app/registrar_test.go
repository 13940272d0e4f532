package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"hunt-event-service/internal/app"
	"hunt-event-service/internal/domain"
	"hunt-event-service/internal/infra/memory"
	"hunt-event-service/internal/logging"
)

var wordID = regexp.MustCompile(`^\w+$`)

func newRegistrar(store *memory.Store, rooms app.RoomDirectory) *app.ChallengeRegistrar {
	return app.NewChallengeRegistrar(store, rooms, logging.Discard()).
		WithClock(func() time.Time { return startedAt })
}

func TestRegisterChallengeCreatesGroup(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t, questionsAt(1, "q1", "q2", "q3", "q4", "q5", "q6", "q7")...)
	rooms := newFakeRooms()
	registrar := newRegistrar(store, rooms)

	challenge, err := registrar.Register(ctx, app.RegisterChallengeCommand{
		GroupName:   "Owls",
		PlayerCount: intPtr(4),
		Difficulty:  intPtr(1),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	groups := store.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	g := groups[0]
	if g.Name != "Owls" || g.PlayerCount != 4 || g.ChallengesCount != 1 || g.WasCleared != domain.FlagUnset || g.SnackState != domain.FlagUnset {
		t.Fatalf("unexpected group: %+v", g)
	}
	if challenge.GroupID != g.GroupID || challenge.State != domain.StatePending || challenge.RoomID != domain.DefaultRoomID {
		t.Fatalf("unexpected challenge: %+v", challenge)
	}
	if !challenge.StartTime.Equal(startedAt) {
		t.Fatalf("expected start time %v, got %v", startedAt, challenge.StartTime)
	}
	if id, ok := rooms.get(domain.DefaultRoomID); !ok || id != challenge.ChallengeID {
		t.Fatalf("expected room marker for %s, got %q", challenge.ChallengeID, id)
	}
	for _, id := range []string{challenge.GroupID, challenge.ChallengeID} {
		if !wordID.MatchString(id) {
			t.Fatalf("id %q must be word characters only", id)
		}
	}
}

func TestNewEventIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := app.NewEventID()
		if !wordID.MatchString(id) || len(id) != 32 {
			t.Fatalf("unexpected id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestRegisterChallengeDuplicateName(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t, questionsAt(4, "q1")...)
	registrar := newRegistrar(store, nil)
	cmd := app.RegisterChallengeCommand{GroupName: "Owls", PlayerCount: intPtr(3), Difficulty: intPtr(4)}

	first, err := registrar.Register(ctx, cmd)
	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	if _, err := registrar.Register(ctx, cmd); !errors.Is(err, domain.ErrDuplicateGroup) {
		t.Fatalf("expected duplicate group, got %v", err)
	}
	if got := len(store.Challenges()); got != 1 {
		t.Fatalf("rejected registration must not write, got %d challenges", got)
	}

	cmd.DupCheck = true
	second, err := registrar.Register(ctx, cmd)
	if err != nil {
		t.Fatalf("register with dupCheck: %v", err)
	}
	if second.GroupID != first.GroupID {
		t.Fatalf("expected group reuse, got %s and %s", first.GroupID, second.GroupID)
	}
	groups := store.Groups()
	if len(groups) != 1 || groups[0].ChallengesCount != 2 {
		t.Fatalf("expected a single group with two challenges, got %+v", groups)
	}
}

func TestRegisterChallengeRequiresEnoughQuestions(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t, questionsAt(3, "q1", "q2", "q3", "q4", "q5")...)
	registrar := newRegistrar(store, nil)
	cmd := app.RegisterChallengeCommand{GroupName: "Owls", PlayerCount: intPtr(2), Difficulty: intPtr(3)}

	if _, err := registrar.Register(ctx, cmd); !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected insufficient questions, got %v", err)
	}
	if len(store.Groups()) != 0 || len(store.Challenges()) != 0 {
		t.Fatalf("rejected registration must not write")
	}

	if _, err := store.UpsertQuestions(ctx, questionsAt(3, "q6")); err != nil {
		t.Fatalf("add question: %v", err)
	}
	if _, err := registrar.Register(ctx, cmd); err != nil {
		t.Fatalf("register with six questions: %v", err)
	}
}

func TestRegisterChallengeCountsOnlyTerminalAnswers(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t, questionsAt(5, "q1")...)
	registrar := newRegistrar(store, nil)
	cmd := app.RegisterChallengeCommand{GroupName: "Owls", PlayerCount: intPtr(2), Difficulty: intPtr(5), DupCheck: true}

	challenge, err := registrar.Register(ctx, cmd)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_ = store.InsertAnsweredQuestion(ctx, domain.AnsweredQuestion{GroupID: challenge.GroupID, QuestionID: "q1", Result: "Skipped"})
	if _, err := registrar.Register(ctx, cmd); err != nil {
		t.Fatalf("non-terminal answer must not use up the question: %v", err)
	}

	_ = store.InsertAnsweredQuestion(ctx, domain.AnsweredQuestion{GroupID: challenge.GroupID, QuestionID: "q1", Result: domain.ResultCorrect})
	if _, err := registrar.Register(ctx, cmd); !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected insufficient questions, got %v", err)
	}
}

func TestRegisterChallengeValidation(t *testing.T) {
	registrar := newRegistrar(memory.NewStore(), nil)
	ctx := context.Background()

	missing := []app.RegisterChallengeCommand{
		{PlayerCount: intPtr(2), Difficulty: intPtr(1)},
		{GroupName: "Owls", Difficulty: intPtr(1)},
		{GroupName: "Owls", PlayerCount: intPtr(2)},
	}
	for _, cmd := range missing {
		_, err := registrar.Register(ctx, cmd)
		requireValidation(t, err, "Missing required fields")
	}

	for _, level := range []int{0, 6, -1} {
		_, err := registrar.Register(ctx, app.RegisterChallengeCommand{GroupName: "Owls", PlayerCount: intPtr(2), Difficulty: intPtr(level)})
		requireValidation(t, err, "Invalid difficulty level")
	}
}

func TestRegisterChallengeAcceptsZeroPlayers(t *testing.T) {
	store := newSeededStore(t, questionsAt(4, "q1")...)
	registrar := newRegistrar(store, nil)

	if _, err := registrar.Register(context.Background(), app.RegisterChallengeCommand{GroupName: "Owls", PlayerCount: intPtr(0), Difficulty: intPtr(4)}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if g := store.Groups()[0]; g.PlayerCount != 0 {
		t.Fatalf("expected zero players, got %d", g.PlayerCount)
	}
}

func TestDupCheckAcceptsTruthyValues(t *testing.T) {
	cases := map[string]bool{
		`true`: true, `1`: true, `"true"`: true, `"false"`: true, `{}`: true,
		`false`: false, `0`: false, `""`: false, `null`: false,
	}
	for raw, want := range cases {
		var cmd app.RegisterChallengeCommand
		if err := json.Unmarshal([]byte(`{"dupCheck":`+raw+`}`), &cmd); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		if bool(cmd.DupCheck) != want {
			t.Fatalf("dupCheck %s: expected %v, got %v", raw, want, cmd.DupCheck)
		}
	}
}
