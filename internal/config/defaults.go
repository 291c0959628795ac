package config

// SectionHeaders are the canonical pitch-deck section names recognized
// during ingestion. A document line equal to one of these (after trimming,
// lowercasing, and stripping a trailing colon) starts a new section.
var SectionHeaders = []string{
	"problem",
	"solution",
	"product",
	"how it works",
	"target customer",
	"competitive advantage",
	"value proposition",
}

// EmbeddingDimensions maps known embedding models to their output
// dimensionality. A model missing here disables the drift check.
var EmbeddingDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"nomic-embed-text":       768,
	"all-minilm":             384,
}

// DefaultExcludes are glob patterns excluded from the docs directory by default.
var DefaultExcludes = []string{
	".*/**",
	"~$*",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		ChatModel:      "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",

		StartupName: "FundEd",

		DocsDir:   "data/docs",
		DataDir:   "data/index",
		PromptDir: "prompts",
		CardsFile: "cards.pdf",
		Include:   []string{"**/*.pdf"},
		Exclude:   DefaultExcludes,

		ChunkSize:       1200,
		ChunkOverlap:    200,
		SimilarityFloor: 0.50,
		TopK:            5,

		ContextTokenBudget: 1500,
		PitchTokenBudget:   2000,
		MaxResponseTokens:  500,
		MaxHistory:         6,

		DefaultLanguage:    "en",
		SupportedLanguages: []string{"en", "de", "ar"},

		Server: ServerConfig{
			Port:     8080,
			AllowAll: false,
		},
	}
}

// ExpectedDimensions returns the expected embedding dimensionality for the
// configured embedding model, or 0 if the model is unknown.
func (c *Config) ExpectedDimensions() int {
	return EmbeddingDimensions[c.EmbeddingModel]
}
