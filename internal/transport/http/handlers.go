package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"hunt-event-service/internal/app"
	"hunt-event-service/internal/domain"
)

var questionPath = regexp.MustCompile(`(\w+)/getQuestion/(\d+)$`)

// Services are the use cases served over HTTP.
type Services struct {
	Answers   *app.AnswerRegistrar
	Finisher  *app.ChallengeFinisher
	Selector  *app.QuestionSelector
	Registrar *app.ChallengeRegistrar
	Board     *app.ClearBoard
	// Ping reports backend health; nil means always healthy.
	Ping func(ctx context.Context) error
}

type handlers struct {
	svc Services
	log logrus.FieldLogger
}

func (h *handlers) registerAnswer(w http.ResponseWriter, r *http.Request) {
	var cmd app.RegisterAnswerCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid data")
		return
	}

	counter, err := h.svc.Answers.Register(r.Context(), cmd)
	var vErr *domain.ValidationError
	switch {
	case err == nil:
		writeSuccess(w, string(counter)+" successfully updated")
	case errors.As(err, &vErr):
		writeFailure(w, http.StatusBadRequest, vErr.Reason)
	default:
		writeFailure(w, http.StatusInternalServerError, "Database error")
	}
}

func (h *handlers) finishChallenge(w http.ResponseWriter, r *http.Request) {
	cmd := app.FinishCommand{RoomCode: lastSegment(r.URL.Path)}
	// An unreadable body leaves Result empty and fails validation below.
	_ = json.NewDecoder(r.Body).Decode(&cmd)

	_, err := h.svc.Finisher.Finish(r.Context(), cmd)
	var vErr *domain.ValidationError
	switch {
	case err == nil:
		writeSuccess(w, "Room and challenge processed successfully")
	case errors.As(err, &vErr):
		writeFailure(w, http.StatusBadRequest, vErr.Reason)
	case errors.Is(err, domain.ErrNotFound) && !isDatabaseError(err):
		writeFailure(w, http.StatusNotFound, "No active challenge for room")
	default:
		writeFailureDetail(w, http.StatusInternalServerError, "Database error", err)
	}
}

func (h *handlers) getQuestion(w http.ResponseWriter, r *http.Request) {
	m := questionPath.FindStringSubmatch(r.URL.Path)
	if m == nil {
		notFound(w, r)
		return
	}
	groupID := m[1]
	level, err := strconv.Atoi(m[2])
	if err != nil {
		writeError(w, http.StatusNotFound, "No matching question found")
		return
	}

	question, err := h.svc.Selector.Select(r.Context(), groupID, level)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, question)
	case errors.Is(err, domain.ErrNoAvailableQuestions):
		writeError(w, http.StatusNotFound, "No available questions after multiple attempts.")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "No matching question found")
	default:
		h.log.WithError(err).WithField("group_id", groupID).Error("select question failed")
		writeErrorDetail(w, http.StatusInternalServerError, "Database error", err)
	}
}

func (h *handlers) registerChallenge(w http.ResponseWriter, r *http.Request) {
	var cmd app.RegisterChallengeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeFailure(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	_, err := h.svc.Registrar.Register(r.Context(), cmd)
	var vErr *domain.ValidationError
	switch {
	case err == nil:
		writeSuccess(w, "Challenge registered successfully")
	case errors.As(err, &vErr):
		writeFailure(w, http.StatusBadRequest, vErr.Reason)
	case errors.Is(err, domain.ErrDuplicateGroup):
		writeFailure(w, http.StatusForbidden, "Group name already exists. Set dupCheck to true to proceed.")
	case errors.Is(err, domain.ErrInsufficientQuestions):
		writeFailure(w, http.StatusBadRequest, "Not enough available questions")
	default:
		h.log.WithError(err).WithField("group", cmd.GroupName).Error("register challenge failed")
		writeFailureDetail(w, http.StatusInternalServerError, "Error registering challenge", err)
	}
}

func (h *handlers) clearBoard(w http.ResponseWriter, r *http.Request) {
	difficulty, err := strconv.Atoi(mux.Vars(r)["difficulty"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid difficulty level")
		return
	}
	board, err := h.svc.Board.Board(r.Context(), difficulty)
	if err != nil {
		writeErrorDetail(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.svc.Ping != nil {
		if err := h.svc.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func lastSegment(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

func isDatabaseError(err error) bool {
	var dbErr *domain.DatabaseError
	return errors.As(err, &dbErr)
}
