package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fundedai/boothchat/internal/llm"
)

// Language is the closed set of languages the booth assistant speaks.
type Language string

const (
	LangEnglish Language = "en"
	LangGerman  Language = "de"
	LangArabic  Language = "ar"
)

// Languages lists every supported language.
var Languages = []Language{LangEnglish, LangGerman, LangArabic}

// ParseLanguage maps a detected language code onto the closed set; anything
// unrecognized becomes English.
func ParseLanguage(code string) Language {
	switch Language(strings.ToLower(code)) {
	case LangGerman:
		return LangGerman
	case LangArabic:
		return LangArabic
	default:
		return LangEnglish
	}
}

// ErrNoPrompt indicates a required prompt file is missing from the prompt
// directory. It is fatal at startup, never at request time.
var ErrNoPrompt = errors.New("required prompt file missing")

const (
	sharedPromptFile  = "marketing_system.txt"
	promptFilePattern = "marketing_%s.txt"

	dispatchTemperature = 0.4
)

// ChatClient is the slice of the model gateway the dispatcher needs.
type ChatClient interface {
	Chat(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, error)
}

// Dispatcher assembles per-language prompts and performs the final model
// call. Prompts are read once at construction; the dispatcher holds no
// per-request state.
type Dispatcher struct {
	gateway   ChatClient
	prompts   map[Language]string
	maxTokens int
}

// NewDispatcher loads the prompt files from promptDir and returns a ready
// dispatcher. The shared system prompt is required; a missing localized
// prompt falls back to the English one, which is therefore required too.
func NewDispatcher(gateway ChatClient, promptDir string, maxTokens int) (*Dispatcher, error) {
	shared, err := readPrompt(promptDir, sharedPromptFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoPrompt, sharedPromptFile)
	}

	english, err := readPrompt(promptDir, localizedFile(LangEnglish))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoPrompt, localizedFile(LangEnglish))
	}

	prompts := make(map[Language]string, len(Languages))
	for _, lang := range Languages {
		localized := english
		if lang != LangEnglish {
			loaded, err := readPrompt(promptDir, localizedFile(lang))
			if err != nil {
				log.Warn().Str("language", string(lang)).Msg("localized prompt missing, using English")
			} else {
				localized = loaded
			}
		}
		prompts[lang] = shared + "\n\n" + localized
	}

	return &Dispatcher{
		gateway:   gateway,
		prompts:   prompts,
		maxTokens: maxTokens,
	}, nil
}

func localizedFile(lang Language) string {
	return fmt.Sprintf(promptFilePattern, lang)
}

func readPrompt(dir, name string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("prompt %s is empty", name)
	}
	return text, nil
}

// Dispatch answers the question in the given language, grounding the model
// on retrieved context when there is any. The response text is returned
// verbatim.
func (d *Dispatcher) Dispatch(ctx context.Context, lang Language, question string, history []llm.Message, contextBlock string) (string, error) {
	system, ok := d.prompts[lang]
	if !ok {
		system = d.prompts[LangEnglish]
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: system}}
	if grounding, ok := d.groundingMessage(lang, contextBlock); ok {
		messages = append(messages, grounding)
	}
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	return d.gateway.Chat(ctx, messages, dispatchTemperature, d.maxTokens)
}

// groundingMessage localizes how retrieved context is injected. English
// always gets an instruction, even without matches; German and Arabic only
// when context exists.
func (d *Dispatcher) groundingMessage(lang Language, contextBlock string) (llm.Message, bool) {
	switch lang {
	case LangGerman:
		if contextBlock == "" {
			return llm.Message{}, false
		}
		return llm.Message{
			Role: llm.RoleSystem,
			Content: "Nutze das folgende Material, wenn es zur Frage passt; " +
				"sonst antworte aus deinem Allgemeinwissen über das Startup.\n\n" + contextBlock,
		}, true
	case LangArabic:
		if contextBlock == "" {
			return llm.Message{}, false
		}
		return llm.Message{
			Role:    llm.RoleSystem,
			Content: "استخدم المواد التالية عند الإجابة إذا كانت ذات صلة بالسؤال.\n\n" + contextBlock,
		}, true
	default:
		if contextBlock == "" {
			return llm.Message{
				Role: llm.RoleSystem,
				Content: "No booth material matched this question. " +
					"Answer from your general knowledge of the startup and say so when unsure.",
			}, true
		}
		return llm.Message{
			Role: llm.RoleSystem,
			Content: "Use the following booth material when it is relevant to the question; " +
				"otherwise fall back to your general knowledge of the startup.\n\n" + contextBlock,
		}, true
	}
}
