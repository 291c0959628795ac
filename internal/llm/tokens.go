package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

// TokenCounter measures text length in model tokens. Components that
// assemble token-budgeted context depend on this rather than on a
// concrete tokenizer.
type TokenCounter interface {
	CountTokens(text string) int
}

// tiktokenCounter counts tokens with the encoding for the configured chat
// model, falling back to cl100k_base for unknown models. If no encoding
// can be loaded at all it estimates one token per four characters.
type tiktokenCounter struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

func newTokenCounter(model string) *tiktokenCounter {
	return &tiktokenCounter{model: model}
}

func (c *tiktokenCounter) CountTokens(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err != nil {
			log.Warn().Str("model", c.model).Err(err).Msg("no tokenizer available, estimating token counts")
			return
		}
		c.enc = enc
	})

	if c.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// perMessageOverhead and perConversationOverhead approximate the chat
// format's framing tokens.
const (
	perMessageOverhead      = 4
	perConversationOverhead = 2
)

// CountMessageTokens counts the tokens of a full message sequence,
// including per-message framing overhead.
func CountMessageTokens(counter TokenCounter, messages []Message) int {
	total := perConversationOverhead
	for _, msg := range messages {
		total += counter.CountTokens(msg.Content) + perMessageOverhead
	}
	return total
}
