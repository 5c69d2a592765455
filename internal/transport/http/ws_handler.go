package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"biodiversity-quiz/internal/app"
	"biodiversity-quiz/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Inbound command types.
const (
	cmdSelect = "select"
	cmdSubmit = "submit"
	cmdNext   = "next"
	cmdQuit   = "quit"
)

// Outbound message types.
const (
	msgSnapshot  = "snapshot"
	msgComplete  = "complete"
	msgAbandoned = "abandoned"
	msgError     = "error"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	AnswerID string `json:"answerId"`
}

type completePayload struct {
	Result    domain.SessionResult `json:"result"`
	NewBadges []domain.Badge       `json:"newBadges"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: msgError, Payload: errorPayload{Code: errorCode(err), Message: err.Error()}}
}

// errorCode maps domain errors to the codes clients switch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoQuestions):
		return "unavailable"
	case errors.Is(err, domain.ErrUnknownSessionType):
		return "bad_request"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "not_found"
	}
	return "internal"
}

func startRequest(r *http.Request) (app.StartRequest, bool) {
	q := r.URL.Query()
	req := app.StartRequest{
		UserID:      q.Get("userId"),
		DisplayName: q.Get("name"),
		Type:        domain.SessionType(q.Get("type")),
	}
	if req.UserID == "" {
		return req, false
	}
	if req.DisplayName == "" {
		req.DisplayName = req.UserID
	}
	if req.Type == "" {
		req.Type = domain.SessionStandard
	}
	for _, v := range q["ageGroup"] {
		for _, g := range strings.Split(v, ",") {
			if g = strings.TrimSpace(g); g != "" {
				req.AgeGroups = append(req.AgeGroups, domain.AgeGroup(g))
			}
		}
	}
	return req, true
}

// ServeWS starts a session for the connecting user and streams its snapshots.
// The connection carries exactly one session; it ends with a complete or
// abandoned message. Dropping the connection abandons the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	req, ok := startRequest(r)
	if !ok {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "ws: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Commands keep working while the request context is torn down on close.
	ctx := context.WithoutCancel(r.Context())

	snap, err := h.service.Start(ctx, req)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	sessionID := snap.SessionID

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancel()

	ended := false
	defer func() {
		if !ended {
			// Connection dropped mid-session.
			_ = h.service.Abandon(ctx, sessionID)
		}
	}()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.WarnContext(ctx, "ws: write failed", "session", sessionID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: msgSnapshot, Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for !ended {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case cmdSelect:
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: msgError, Payload: errorPayload{Code: "bad_request", Message: "invalid select payload"}}
				continue
			}
			if _, err := h.service.SelectAnswer(ctx, sessionID, payload.AnswerID); err != nil {
				send <- errorMessage(err)
			}
		case cmdSubmit:
			if _, err := h.service.Submit(ctx, sessionID); err != nil {
				send <- errorMessage(err)
			}
		case cmdNext:
			_, completion, err := h.service.Advance(ctx, sessionID)
			if completion != nil {
				// Wait for the final snapshot so complete is the last message.
				<-updatesDone
				send <- outboundMessage[any]{Type: msgComplete, Payload: completePayload{
					Result:    completion.Result,
					NewBadges: completion.NewBadges,
				}}
				ended = true
			}
			if err != nil {
				send <- errorMessage(err)
			}
		case cmdQuit:
			if err := h.service.Abandon(ctx, sessionID); err != nil {
				send <- errorMessage(err)
				continue
			}
			<-updatesDone
			send <- outboundMessage[any]{Type: msgAbandoned, Payload: struct {
				SessionID string `json:"sessionId"`
			}{sessionID}}
			ended = true
		default:
			send <- outboundMessage[any]{Type: msgError, Payload: errorPayload{Code: "bad_request", Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
