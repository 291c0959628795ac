package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fundedai/boothchat/internal/chat"
	"github.com/fundedai/boothchat/internal/llm"
	"github.com/fundedai/boothchat/internal/router"
)

// apology is returned to visitors when answering fails for any internal
// reason; the real error only goes to the logs.
const apology = "Sorry, something went wrong on our side. Please try again in a moment."

type chatRequest struct {
	Question  string        `json:"question"`
	History   []llm.Message `json:"history,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer, err := s.orchestrator.Answer(r.Context(), req.Question, req.History)
	if errors.Is(err, chat.ErrEmptyQuestion) {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("answering failed")
		writeJSON(w, http.StatusOK, chatResponse{Response: apology, SessionID: sessionID})
		return
	}

	s.record(r, sessionID, req.Question, answer)
	writeJSON(w, http.StatusOK, chatResponse{Response: answer, SessionID: sessionID})
}

// record stores the question/answer pair when transcripts are enabled.
func (s *Server) record(r *http.Request, sessionID, question, answer string) {
	if s.transcripts == nil {
		return
	}
	lang := router.DetectLanguage(question, s.cfg.DefaultLanguage)
	ctx := r.Context()
	if err := s.transcripts.AppendTranscript(ctx, sessionID, "user", question, lang); err != nil {
		log.Warn().Err(err).Msg("recording question failed")
		return
	}
	if err := s.transcripts.AppendTranscript(ctx, sessionID, "assistant", answer, lang); err != nil {
		log.Warn().Err(err).Msg("recording answer failed")
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.reindexMu.Lock()
	defer s.reindexMu.Unlock()

	if err := s.reindexer.EnsureIndex(r.Context()); err != nil {
		log.Error().Err(err).Msg("reload failed")
		writeError(w, http.StatusInternalServerError, "reindexing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.orchestrator.QuickInfoCards(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("serving cards failed")
		writeError(w, http.StatusInternalServerError, "cards unavailable")
		return
	}
	if cards == nil {
		cards = []chat.Card{}
	}
	writeJSON(w, http.StatusOK, map[string][]chat.Card{"cards": cards})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		writeError(w, http.StatusNotFound, "transcripts disabled")
		return
	}

	sessionID := chi.URLParam(r, "id")
	entries, err := s.transcripts.ListBySession(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("listing transcript failed")
		writeError(w, http.StatusInternalServerError, "transcript unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"entries":    entries,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writing response failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
