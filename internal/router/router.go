package router

import "strings"

// Intent classifies what the visitor wants from the assistant.
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentAbout    Intent = "about"
	IntentQA       Intent = "qa"
)

// Depth hints how expansive the answer should be.
type Depth string

const (
	DepthLight    Depth = "light"
	DepthPitch    Depth = "pitch"
	DepthStandard Depth = "standard"
)

// Confidence grades how sure the keyword heuristics are.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Decision is the router's classification of one question. It is computed
// fresh per request and never persisted.
type Decision struct {
	Language   string
	Intent     Intent
	Depth      Depth
	Confidence Confidence
	Handled    bool
	Response   string
}

// Turn is one prior conversation message as seen by the router.
type Turn struct {
	Role    string
	Content string
}

// greetings are matched exactly or as a leading word. The list mixes the
// booth's visitor languages on purpose.
var greetings = []string{
	"hi", "hello", "hey",
	"selam", "merhaba",
	"hallo", "guten",
	"مرحبا", "السلام",
}

// Language marker words. This is a cheap heuristic, not a language
// detector; anything unmatched is treated as the default language.
var (
	germanMarkers = []string{"hallo", "guten", "wie"}
	arabicMarkers = []string{"مرحبا", "كيف", "ما", "هل"}
)

// intentRule maps a keyword set to a classification. Rules are evaluated
// in order; the first match wins.
type intentRule struct {
	keywords   []string
	intent     Intent
	depth      Depth
	confidence Confidence
}

var intentRules = []intentRule{
	{
		keywords:   []string{"invest", "pitch", "funding", "valuation", "business model"},
		intent:     IntentAbout,
		depth:      DepthPitch,
		confidence: ConfidenceHigh,
	},
	{
		keywords:   []string{"what is this", "explain", "tell me about", "anlat", "özetle", "bu startup"},
		intent:     IntentAbout,
		depth:      DepthLight,
		confidence: ConfidenceMedium,
	},
}

// canned per-language greetings, returned without a model call.
var greetingResponses = map[string]string{
	"en": "Hi! I’m the marketing assistant. How can I help?",
	"de": "Hallo! Ich bin der Marketing-Assistent. Wie kann ich helfen?",
	"ar": "مرحبًا! أنا المساعد التسويقي. كيف يمكنني المساعدة؟",
}

// IsGreeting reports whether the text is a bare greeting, matched exactly
// or as the first word.
func IsGreeting(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, g := range greetings {
		if t == g || strings.HasPrefix(t, g+" ") {
			return true
		}
	}
	return false
}

// DetectLanguage guesses the question's language from marker words,
// defaulting to defaultLang.
func DetectLanguage(text, defaultLang string) string {
	t := strings.ToLower(text)
	for _, w := range germanMarkers {
		if strings.Contains(t, w) {
			return "de"
		}
	}
	for _, w := range arabicMarkers {
		if strings.Contains(t, w) {
			return "ar"
		}
	}
	return defaultLang
}

// DetectIntentAndDepth classifies a question via the ordered keyword rules.
func DetectIntentAndDepth(text string) (Intent, Depth, Confidence) {
	t := strings.ToLower(text)

	if IsGreeting(t) {
		return IntentGreeting, DepthLight, ConfidenceHigh
	}

	for _, rule := range intentRules {
		for _, k := range rule.keywords {
			if strings.Contains(t, k) {
				return rule.intent, rule.depth, rule.confidence
			}
		}
	}

	return IntentQA, DepthStandard, ConfidenceLow
}

// Router classifies questions for the orchestrator.
type Router struct {
	defaultLang string
	supported   map[string]bool
}

// New creates a Router over the supported language set.
func New(defaultLang string, supported []string) *Router {
	set := make(map[string]bool, len(supported))
	for _, l := range supported {
		set[l] = true
	}
	return &Router{defaultLang: defaultLang, supported: set}
}

// Route classifies the question. A greeting at the start of a conversation
// is fully handled here with a canned per-language response; everything
// else is returned for the orchestrator to continue.
func (r *Router) Route(question string, history []Turn) Decision {
	lang := DetectLanguage(question, r.defaultLang)
	if !r.supported[lang] {
		lang = r.defaultLang
	}

	intent, depth, confidence := DetectIntentAndDepth(question)

	if intent == IntentGreeting && len(history) == 0 {
		resp, ok := greetingResponses[lang]
		if !ok {
			resp = greetingResponses[r.defaultLang]
		}
		return Decision{
			Language:   lang,
			Intent:     intent,
			Depth:      depth,
			Confidence: confidence,
			Handled:    true,
			Response:   resp,
		}
	}

	return Decision{
		Language:   lang,
		Intent:     intent,
		Depth:      depth,
		Confidence: confidence,
	}
}
