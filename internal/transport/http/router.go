package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the event API. Routes are tried in registration order and the
// first match wins; anything else, method mismatches included, is a 404.
func NewRouter(svc Services, log logrus.FieldLogger) *mux.Router {
	h := &handlers{svc: svc, log: log}
	feed := NewClearFeedHandler(svc.Board, log)

	r := mux.NewRouter()
	r.SkipClean(true)

	r.Handle("/answer/register", http.HandlerFunc(h.registerAnswer)).
		Methods(http.MethodPost).
		Name("registerAnswer")
	r.PathPrefix("/finish").
		Methods(http.MethodPost).
		HandlerFunc(h.finishChallenge).
		Name("finishChallenge")
	r.MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
		return questionPath.MatchString(req.URL.Path)
	}).
		Methods(http.MethodGet).
		HandlerFunc(h.getQuestion).
		Name("getQuestion")
	r.MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
		return strings.HasSuffix(req.URL.Path, "/adminui/regChallenge")
	}).
		Methods(http.MethodPost).
		HandlerFunc(h.registerChallenge).
		Name("registerChallenge")

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet).Name("healthz")
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	r.HandleFunc("/cleartimes/{difficulty:[0-9]+}", h.clearBoard).Methods(http.MethodGet).Name("clearBoard")
	r.HandleFunc("/ws/cleartimes", feed.ServeWS).Methods(http.MethodGet).Name("clearFeed")

	// mux skips r.Use middleware for the fallback handlers.
	fallback := metricsMiddleware(loggingMiddleware(log)(http.HandlerFunc(notFound)))
	r.NotFoundHandler = fallback
	r.MethodNotAllowedHandler = fallback

	r.Use(metricsMiddleware, loggingMiddleware(log))
	return r
}
