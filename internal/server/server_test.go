package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/fundedai/boothchat/internal/chat"
	"github.com/fundedai/boothchat/internal/config"
	"github.com/fundedai/boothchat/internal/db"
	"github.com/fundedai/boothchat/internal/llm"
)

type fakeOrchestrator struct {
	answer      string
	answerErr   error
	cards       []chat.Card
	lastHistory []llm.Message
}

func (f *fakeOrchestrator) Answer(ctx context.Context, question string, history []llm.Message) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", chat.ErrEmptyQuestion
	}
	f.lastHistory = history
	return f.answer, f.answerErr
}

func (f *fakeOrchestrator) QuickInfoCards(ctx context.Context) ([]chat.Card, error) {
	return f.cards, nil
}

type fakeReindexer struct {
	calls int
	err   error
}

func (f *fakeReindexer) EnsureIndex(ctx context.Context) error {
	f.calls++
	return f.err
}

func newTestServer(t *testing.T) (*Server, *fakeOrchestrator, *fakeReindexer) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	orch := &fakeOrchestrator{answer: "we fund schools"}
	reindexer := &fakeReindexer{}
	return New(config.DefaultConfig(), orch, reindexer, database), orch, reindexer
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestChatReturnsAnswerAndSession(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := postJSON(t, s.Router(), "/chat", chatRequest{Question: "what do you do?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "we fund schools" {
		t.Errorf("unexpected response: %q", resp.Response)
	}
	if resp.SessionID == "" {
		t.Error("a session id must be generated when none is supplied")
	}
}

func TestChatEchoesSessionID(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := postJSON(t, s.Router(), "/chat", chatRequest{Question: "q", SessionID: "visitor-42"})
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != "visitor-42" {
		t.Errorf("expected echoed session id, got %q", resp.SessionID)
	}
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := postJSON(t, s.Router(), "/chat", chatRequest{Question: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChatInternalErrorReturnsApology(t *testing.T) {
	s, orch, _ := newTestServer(t)
	orch.answerErr = errors.New("model unavailable")

	rec := postJSON(t, s.Router(), "/chat", chatRequest{Question: "q"})
	if rec.Code != http.StatusOK {
		t.Fatalf("apology path must not leak an error status, got %d", rec.Code)
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != apology {
		t.Errorf("expected apology, got %q", resp.Response)
	}
}

func TestChatForwardsHistory(t *testing.T) {
	s, orch, _ := newTestServer(t)

	history := []llm.Message{{Role: llm.RoleUser, Content: "earlier"}}
	postJSON(t, s.Router(), "/chat", chatRequest{Question: "q", History: history})
	if len(orch.lastHistory) != 1 || orch.lastHistory[0].Content != "earlier" {
		t.Errorf("history not forwarded: %+v", orch.lastHistory)
	}
}

func TestReload(t *testing.T) {
	s, _, reindexer := newTestServer(t)

	rec := postJSON(t, s.Router(), "/reload", struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if reindexer.calls != 1 {
		t.Errorf("expected one reindex call, got %d", reindexer.calls)
	}

	reindexer.err = errors.New("disk full")
	rec = postJSON(t, s.Router(), "/reload", struct{}{})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on reindex failure, got %d", rec.Code)
	}
}

func TestCards(t *testing.T) {
	s, orch, _ := newTestServer(t)
	orch.cards = []chat.Card{{Title: "problem", Content: "funding is opaque"}}

	req := httptest.NewRequest(http.MethodGet, "/cards", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Cards []chat.Card `json:"cards"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Cards) != 1 || resp.Cards[0].Title != "problem" {
		t.Errorf("unexpected cards: %+v", resp.Cards)
	}
}

func TestTranscriptRecordingRoundTrip(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := postJSON(t, s.Router(), "/chat", chatRequest{Question: "what do you do?", SessionID: "s1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat failed: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/s1/transcript", nil)
	out := httptest.NewRecorder()
	s.Router().ServeHTTP(out, req)

	if out.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", out.Code)
	}
	var resp struct {
		SessionID string               `json:"session_id"`
		Entries   []db.TranscriptEntry `json:"entries"`
	}
	if err := json.Unmarshal(out.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("expected question and answer recorded, got %d entries", len(resp.Entries))
	}
	if resp.Entries[0].Role != "user" || resp.Entries[1].Role != "assistant" {
		t.Errorf("unexpected roles: %+v", resp.Entries)
	}
}

func TestWebSocketChat(t *testing.T) {
	s, _, _ := newTestServer(t)

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsRequest{Question: "what do you do?"}); err != nil {
		t.Fatal(err)
	}
	var resp wsResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != "response" || resp.Content != "we fund schools" {
		t.Errorf("unexpected websocket response: %+v", resp)
	}
	if resp.SessionID == "" {
		t.Error("websocket chat must assign a session id")
	}

	// Empty question yields an error frame, connection stays open.
	if err := conn.WriteJSON(wsRequest{SessionID: resp.SessionID}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != "error" {
		t.Errorf("expected error frame, got %+v", resp)
	}
}
