package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/fundedai/boothchat/internal/embeddings"
)

// maxEmbedChars bounds embedding inputs; longer texts are truncated with a
// logged warning rather than rejected.
const maxEmbedChars = 30000

// Gateway wraps a chat provider and an embedder behind one retrying surface.
// It is constructed once and passed by reference; it holds no per-request state.
type Gateway struct {
	provider Provider
	embedder embeddings.Embedder
	counter  TokenCounter

	chatModel    string
	expectedDims int

	chatRetry  retryPolicy
	embedRetry retryPolicy
}

// Options configures a Gateway.
type Options struct {
	ChatModel string
	// ExpectedDims is the dimensionality expected from the embedding model,
	// or 0 to disable the drift check.
	ExpectedDims int
}

// NewGateway creates a Gateway over the given provider and embedder.
func NewGateway(provider Provider, embedder embeddings.Embedder, opts Options) *Gateway {
	return &Gateway{
		provider:     provider,
		embedder:     embedder,
		counter:      newTokenCounter(opts.ChatModel),
		chatModel:    opts.ChatModel,
		expectedDims: opts.ExpectedDims,
		chatRetry:    defaultChatRetry,
		embedRetry:   defaultEmbedRetry,
	}
}

// Chat sends the message sequence to the chat model and returns its text.
// Transient failures are retried with exponential backoff; after the retry
// budget is exhausted the last error surfaces as a hard failure.
func (g *Gateway) Chat(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("chat: messages must be non-empty")
	}

	var resp *CompletionResponse
	err := g.chatRetry.do(ctx, "chat", func() error {
		var callErr error
		resp, callErr = g.provider.Complete(ctx, CompletionRequest{
			Model:       g.chatModel,
			Messages:    messages,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
		return callErr
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Embed generates an embedding for the given text. Inputs over maxEmbedChars
// are truncated. A dimensionality mismatch against the configured expectation
// is logged but the vector is still returned.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("embed: text must be non-empty")
	}

	if len(text) > maxEmbedChars {
		cut := maxEmbedChars
		// Never cut in the middle of a multi-byte rune.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
		log.Warn().Int("max_chars", maxEmbedChars).Msg("truncated embedding input")
	}

	var vec []float32
	err := g.embedRetry.do(ctx, "embed", func() error {
		vecs, callErr := g.embedder.Embed(ctx, []string{text})
		if callErr != nil {
			return callErr
		}
		if len(vecs) == 0 || len(vecs[0]) == 0 {
			return fmt.Errorf("embedder returned empty payload")
		}
		vec = vecs[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	if g.expectedDims != 0 && len(vec) != g.expectedDims {
		log.Warn().
			Int("expected", g.expectedDims).
			Int("got", len(vec)).
			Msg("embedding dimension mismatch")
	}

	return vec, nil
}

// CountTokens counts tokens in the given text.
func (g *Gateway) CountTokens(text string) int {
	return g.counter.CountTokens(text)
}

// CountMessages counts tokens across a message sequence including framing.
func (g *Gateway) CountMessages(messages []Message) int {
	return CountMessageTokens(g.counter, messages)
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

const extractPrompt = `You extract structured startup sections.
Return JSON with keys:
problem, solution, product, value_proposition.
If missing, return empty string.`

// ExtractSections asks the model to pull canonical startup sections out of
// unstructured text. An unparseable response degrades to an empty summary
// rather than failing the caller.
func (g *Gateway) ExtractSections(ctx context.Context, text string) SectionSummary {
	messages := []Message{
		{Role: RoleSystem, Content: extractPrompt},
		{Role: RoleUser, Content: text},
	}

	var resp *CompletionResponse
	err := g.chatRetry.do(ctx, "extract", func() error {
		var callErr error
		resp, callErr = g.provider.Complete(ctx, CompletionRequest{
			Model:       g.chatModel,
			Messages:    messages,
			MaxTokens:   500,
			Temperature: 0.0,
			JSONMode:    true,
		})
		return callErr
	})
	if err != nil {
		log.Warn().Err(err).Msg("section extraction failed")
		return SectionSummary{}
	}

	raw := jsonObjectPattern.FindString(resp.Content)
	if raw == "" {
		log.Warn().Msg("section extraction returned no JSON object")
		return SectionSummary{}
	}

	var summary SectionSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		log.Warn().Err(err).Msg("section extraction returned invalid JSON")
		return SectionSummary{}
	}
	return summary
}
