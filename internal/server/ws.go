package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fundedai/boothchat/internal/llm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	SessionID string        `json:"session_id"` // empty for new sessions
	Question  string        `json:"question"`
	History   []llm.Message `json:"history,omitempty"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type      string `json:"type"` // "response" or "error"
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWS(conn, wsResponse{Type: "error", Content: "invalid message format"})
			continue
		}
		if req.Question == "" {
			s.sendWS(conn, wsResponse{Type: "error", SessionID: req.SessionID, Content: "question is required"})
			continue
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		answer, err := s.orchestrator.Answer(r.Context(), req.Question, req.History)
		if err != nil {
			log.Error().Err(err).Str("session", sessionID).Msg("websocket answer failed")
			s.sendWS(conn, wsResponse{Type: "response", SessionID: sessionID, Content: apology})
			continue
		}

		s.record(r, sessionID, req.Question, answer)
		s.sendWS(conn, wsResponse{Type: "response", SessionID: sessionID, Content: answer})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Warn().Err(err).Msg("websocket write failed")
	}
}
