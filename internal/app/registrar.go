package app

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hunt-event-service/internal/domain"
	"hunt-event-service/internal/metrics"
)

// RegisterChallengeCommand comes from the admin UI when a group starts a challenge.
type RegisterChallengeCommand struct {
	GroupName   string `json:"GroupName" validate:"required"`
	PlayerCount *int   `json:"playerCount" validate:"required"`
	Difficulty  *int   `json:"difficulty" validate:"required"`
	DupCheck    Truthy `json:"dupCheck"`
}

// Truthy is a flag that accepts any JSON value. null, false, 0 and "" are false,
// everything else is true.
type Truthy bool

func (t *Truthy) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = false
	case bool:
		*t = Truthy(x)
	case float64:
		*t = x != 0
	case string:
		*t = x != ""
	default:
		*t = true
	}
	return nil
}

// ChallengeRegistrar starts challenges for groups.
type ChallengeRegistrar struct {
	groups     GroupRepository
	questions  QuestionRepository
	challenges ChallengeRepository
	rooms      RoomDirectory
	newID      func() string
	now        func() time.Time
	log        logrus.FieldLogger
}

// NewChallengeRegistrar builds a ChallengeRegistrar. rooms may be nil.
func NewChallengeRegistrar(store Store, rooms RoomDirectory, log logrus.FieldLogger) *ChallengeRegistrar {
	return &ChallengeRegistrar{
		groups:     store,
		questions:  store,
		challenges: store,
		rooms:      rooms,
		newID:      NewEventID,
		now:        time.Now,
		log:        log,
	}
}

// NewEventID returns a random identifier made of word characters only, so it
// survives the `(\w+)/getQuestion/` path capture.
func NewEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WithClock replaces the time source; used by tests.
func (r *ChallengeRegistrar) WithClock(now func() time.Time) *ChallengeRegistrar {
	r.now = now
	return r
}

// Register checks the group and the question supply, then creates a pending
// challenge in the default room. Nothing is written when a check fails.
func (r *ChallengeRegistrar) Register(ctx context.Context, cmd RegisterChallengeCommand) (domain.Challenge, error) {
	if err := validateCommand(cmd, "Missing required fields", nil); err != nil {
		return domain.Challenge{}, err
	}
	difficulty := *cmd.Difficulty
	required, ok := domain.RequiredQuestions(difficulty)
	if !ok {
		return domain.Challenge{}, domain.Invalid("Invalid difficulty level")
	}

	existing, err := r.groups.GroupByName(ctx, cmd.GroupName)
	found := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Challenge{}, domain.StoreError("find group", err)
	}
	if found && !bool(cmd.DupCheck) {
		return domain.Challenge{}, domain.ErrDuplicateGroup
	}

	available, err := r.questions.CountAvailableQuestions(ctx, existing.GroupID, difficulty)
	if err != nil {
		return domain.Challenge{}, domain.StoreError("count available questions", err)
	}
	if available < required {
		r.log.WithFields(logrus.Fields{
			"group":     cmd.GroupName,
			"available": available,
			"required":  required,
		}).Info("not enough questions for challenge")
		return domain.Challenge{}, domain.ErrInsufficientQuestions
	}

	groupID, err := r.findOrCreateGroup(ctx, existing, found, cmd)
	if err != nil {
		return domain.Challenge{}, err
	}

	challenge := domain.Challenge{
		ChallengeID: r.newID(),
		GroupID:     groupID,
		Difficulty:  difficulty,
		RoomID:      domain.DefaultRoomID,
		State:       domain.StatePending,
		StartTime:   r.now().UTC(),
	}
	if err := r.challenges.CreateChallenge(ctx, challenge); err != nil {
		return domain.Challenge{}, domain.StoreError("create challenge", err)
	}

	if r.rooms != nil {
		if err := r.rooms.Assign(ctx, challenge.RoomID, challenge.ChallengeID); err != nil {
			r.log.WithError(err).WithField("room", challenge.RoomID).Warn("assign room marker failed")
		}
	}
	metrics.ChallengesRegistered.WithLabelValues(strconv.Itoa(difficulty)).Inc()
	r.log.WithFields(logrus.Fields{
		"group_id":     groupID,
		"challenge_id": challenge.ChallengeID,
		"difficulty":   difficulty,
	}).Info("challenge registered")
	return challenge, nil
}

// findOrCreateGroup reuses an existing group, counting one more challenge for it,
// or creates a fresh one.
func (r *ChallengeRegistrar) findOrCreateGroup(ctx context.Context, existing domain.Group, found bool, cmd RegisterChallengeCommand) (string, error) {
	if found {
		if err := r.groups.IncrementChallengesCount(ctx, existing.GroupID); err != nil {
			return "", domain.StoreError("increment challenges count", err)
		}
		return existing.GroupID, nil
	}

	group := domain.Group{
		GroupID:         r.newID(),
		Name:            cmd.GroupName,
		PlayerCount:     *cmd.PlayerCount,
		ChallengesCount: 1,
		WasCleared:      domain.FlagUnset,
		SnackState:      domain.FlagUnset,
	}
	if err := r.groups.CreateGroup(ctx, group); err != nil {
		return "", domain.StoreError("create group", err)
	}
	return group.GroupID, nil
}
