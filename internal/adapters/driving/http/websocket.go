package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// Query channel messages
const (
	msgNoDocument   = "Please upload a PDF document first."
	msgRateLimited  = "Rate limit exceeded. Please wait before sending more messages."
	msgEmptyMessage = "Question must not be empty."

	maxQuestionBytes = 64 << 10
)

// wsReply is the JSON frame sent for every question
type wsReply struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleWebSocket godoc
// @Summary      Question channel
// @Description  WebSocket; each text message is a question, each reply is {"response"} or {"error"}
// @Tags         Questions
// @Router       /ws [get]
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "remote", clientIP(r), "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxQuestionBytes)

	session := s.sessionService.Open()
	defer s.sessionService.Close(session)

	logger := s.logger.With("session_id", session.ID)
	logger.Info("websocket connected", "remote", clientIP(r))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				logger.Warn("websocket read failed", "error", err)
			}
			logger.Info("websocket disconnected")
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		reply := s.answer(r.Context(), session, string(data))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

// answer turns one message into a reply. It never panics and never
// returns an error, so the connection survives every failure.
func (s *Server) answer(ctx context.Context, session *domain.ClientSession, question string) (reply wsReply) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic while answering", "session_id", session.ID, "panic", rec)
			reply = wsReply{Error: "Error: internal error"}
		}
	}()

	if err := s.sessionService.Admit(session); err != nil {
		return wsReply{Error: msgRateLimited}
	}
	if strings.TrimSpace(question) == "" {
		return wsReply{Error: msgEmptyMessage}
	}

	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	answer, err := s.questionService.Ask(ctx, question)
	switch {
	case err == nil:
		return wsReply{Response: answer.Text}
	case errors.Is(err, domain.ErrNoIndex):
		return wsReply{Error: msgNoDocument}
	case errors.Is(err, domain.ErrEmptyQuestion):
		return wsReply{Error: msgEmptyMessage}
	default:
		s.logger.Error("question failed", "session_id", session.ID, "error", err)
		return wsReply{Error: "Error: " + err.Error()}
	}
}
