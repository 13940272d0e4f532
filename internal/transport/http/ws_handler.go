package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"hunt-event-service/internal/app"
)

// ClearFeedHandler streams the clear board of one difficulty over a websocket.
type ClearFeedHandler struct {
	board    *app.ClearBoard
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewClearFeedHandler(board *app.ClearBoard, log logrus.FieldLogger) *ClearFeedHandler {
	return &ClearFeedHandler{
		board: board,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS sends the current board, then a fresh board whenever a clear at the
// requested difficulty is recorded.
func (h *ClearFeedHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	difficulty, err := strconv.Atoi(r.URL.Query().Get("difficulty"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid difficulty level")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()
	log := h.log.WithField("difficulty", difficulty)

	clears, cancel := h.board.Subscribe()
	defer cancel()

	board, err := h.board.Board(r.Context(), difficulty)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "Database error"}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write failed")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ct, ok := <-clears:
				if !ok {
					return
				}
				if ct.Difficulty != difficulty {
					continue
				}
				fresh, err := h.board.Refresh(r.Context(), difficulty)
				if err != nil {
					log.WithError(err).Warn("refresh clear board failed")
					continue
				}
				select {
				case send <- outboundMessage[any]{Type: "board", Payload: fresh}:
				case <-closeSignals:
					return
				default:
					// Client is behind; it gets the next board instead.
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "board", Payload: board}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		select {
		case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}:
		default:
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
