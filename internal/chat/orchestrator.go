package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fundedai/boothchat/internal/config"
	"github.com/fundedai/boothchat/internal/dispatch"
	"github.com/fundedai/boothchat/internal/llm"
	"github.com/fundedai/boothchat/internal/router"
	"github.com/fundedai/boothchat/internal/vectordb"
)

// ErrEmptyQuestion is returned when a request carries no question text.
var ErrEmptyQuestion = errors.New("question must be non-empty")

// Gateway is the slice of the model gateway the orchestrator needs.
type Gateway interface {
	Chat(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
	CountTokens(text string) int
	ExtractSections(ctx context.Context, text string) llm.SectionSummary
}

// Dispatcher performs the final per-language model call.
type Dispatcher interface {
	Dispatch(ctx context.Context, lang dispatch.Language, question string, history []llm.Message, contextBlock string) (string, error)
}

// Card is one quick-info card served to the booth frontend.
type Card struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Exact phrases (lowercased, trimmed) that bypass retrieval and trigger a
// full pitch synthesis.
var pitchTriggers = map[string]bool{
	"describe the startup":      true,
	"tell me about the startup": true,
	"give me the pitch":         true,
	"bu startup'ı anlat":        true,
}

const pitchPrompt = `You are a startup founder giving a concise elevator pitch.
Synthesize the provided material into a compelling pitch: the problem, the
solution, what makes it different, and who it is for. Stay under 200 words
and do not invent facts that are not in the material.`

// probeText seeds whole-collection reads against the vector store.
const probeText = "startup overview"

// Orchestrator answers booth questions: it routes, retrieves grounding
// context, and hands off to the language dispatcher or the pitch path.
type Orchestrator struct {
	cfg        *config.Config
	gateway    Gateway
	store      vectordb.Store
	router     *router.Router
	dispatcher Dispatcher
}

// New creates an Orchestrator.
func New(cfg *config.Config, gateway Gateway, store vectordb.Store, dispatcher Dispatcher) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		gateway:    gateway,
		store:      store,
		router:     router.New(cfg.DefaultLanguage, cfg.SupportedLanguages),
		dispatcher: dispatcher,
	}
}

// Answer produces the assistant's reply to one question. Greetings at the
// start of a conversation and pitch triggers never reach the retrieval or
// dispatch paths.
func (o *Orchestrator) Answer(ctx context.Context, question string, history []llm.Message) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	history = sanitizeHistory(history, o.cfg.MaxHistory)

	if pitchTriggers[strings.ToLower(question)] {
		return o.AutoPitch(ctx)
	}

	decision := o.router.Route(question, toTurns(history))
	if decision.Handled {
		return decision.Response, nil
	}

	contextBlock, err := o.RetrieveContext(ctx, question)
	if err != nil {
		log.Warn().Err(err).Msg("retrieval failed, answering ungrounded")
		contextBlock = ""
	}

	return o.dispatcher.Dispatch(ctx, dispatch.ParseLanguage(decision.Language), question, history, contextBlock)
}

// RetrieveContext embeds the question and assembles the grounding block from
// the best-matching chunks: results below the similarity floor are dropped,
// the rest are appended in descending similarity until the token budget
// would overflow. An empty result is not an error.
func (o *Orchestrator) RetrieveContext(ctx context.Context, question string) (string, error) {
	count := o.store.Docs().Count()
	if count == 0 {
		return "", nil
	}

	emb, err := o.gateway.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embedding question: %w", err)
	}

	k := o.cfg.TopK
	if count < k {
		k = count
	}
	results, err := o.store.Docs().Query(ctx, emb, k)
	if err != nil {
		return "", fmt.Errorf("querying docs: %w", err)
	}

	var blocks []string
	used := 0
	for _, r := range results {
		if float64(r.Similarity) < o.cfg.SimilarityFloor {
			continue
		}
		block := strings.ToUpper(r.Document.Metadata.Section) + ":\n" + r.Document.Content
		cost := o.gateway.CountTokens(block)
		if used+cost > o.cfg.ContextTokenBudget {
			break
		}
		blocks = append(blocks, block)
		used += cost
	}
	return strings.Join(blocks, "\n\n"), nil
}

// AutoPitch synthesizes an elevator pitch from the whole indexed corpus in a
// single model call.
func (o *Orchestrator) AutoPitch(ctx context.Context) (string, error) {
	corpus, err := o.corpusText(ctx, o.cfg.PitchTokenBudget)
	if err != nil {
		return "", fmt.Errorf("collecting corpus: %w", err)
	}
	if corpus == "" {
		return "", errors.New("no indexed material to pitch from")
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: pitchPrompt},
		{Role: llm.RoleUser, Content: corpus},
	}
	return o.gateway.Chat(ctx, messages, 0.6, o.cfg.MaxResponseTokens)
}

// QuickInfoCards serves the curated cards in canonical section order. When
// the cards collection is empty it synthesizes cards once from the corpus
// and stores them; a failed synthesis degrades to an empty set.
func (o *Orchestrator) QuickInfoCards(ctx context.Context) ([]Card, error) {
	if o.store.Cards().Count() == 0 {
		if err := o.synthesizeCards(ctx); err != nil {
			log.Warn().Err(err).Msg("card synthesis failed")
			return []Card{}, nil
		}
	}

	var cards []Card
	for _, section := range config.SectionHeaders {
		doc, ok, err := o.store.Cards().Get(ctx, section)
		if err != nil {
			return nil, fmt.Errorf("reading card %s: %w", section, err)
		}
		if ok {
			cards = append(cards, Card{Title: section, Content: doc.Content})
		}
	}
	return cards, nil
}

func (o *Orchestrator) synthesizeCards(ctx context.Context) error {
	corpus, err := o.corpusText(ctx, o.cfg.PitchTokenBudget)
	if err != nil {
		return err
	}
	if corpus == "" {
		return errors.New("no indexed material")
	}

	summary := o.gateway.ExtractSections(ctx, corpus)
	fields := map[string]string{
		"problem":           summary.Problem,
		"solution":          summary.Solution,
		"product":           summary.Product,
		"value proposition": summary.ValueProposition,
	}

	var docs []vectordb.Document
	for section, content := range fields {
		if strings.TrimSpace(content) == "" {
			continue
		}
		docs = append(docs, vectordb.Document{
			ID:      section,
			Content: content,
			Metadata: vectordb.DocumentMetadata{
				Source:  "synthesized",
				Section: section,
			},
		})
	}
	if len(docs) == 0 {
		return errors.New("extraction produced no sections")
	}
	return o.store.Cards().Upsert(ctx, docs)
}

// corpusText concatenates indexed chunk texts up to the token budget.
func (o *Orchestrator) corpusText(ctx context.Context, budget int) (string, error) {
	docs, err := o.store.Docs().GetAll(ctx, probeText)
	if err != nil {
		return "", err
	}

	var parts []string
	used := 0
	for _, d := range docs {
		cost := o.gateway.CountTokens(d.Content)
		if used+cost > budget {
			break
		}
		parts = append(parts, d.Content)
		used += cost
	}
	return strings.Join(parts, "\n\n"), nil
}

// sanitizeHistory drops system-role turns and bounds the tail length.
// Client-supplied history is untrusted; it must never inject instructions.
func sanitizeHistory(history []llm.Message, max int) []llm.Message {
	var clean []llm.Message
	for _, m := range history {
		if m.Role == llm.RoleSystem {
			continue
		}
		clean = append(clean, m)
	}
	if len(clean) > max {
		clean = clean[len(clean)-max:]
	}
	return clean
}

func toTurns(history []llm.Message) []router.Turn {
	turns := make([]router.Turn, len(history))
	for i, m := range history {
		turns[i] = router.Turn{Role: string(m.Role), Content: m.Content}
	}
	return turns
}
