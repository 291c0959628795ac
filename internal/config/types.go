package config

// ProviderType identifies a model provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level boothchat configuration, corresponding to .boothchat.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	ChatModel      string       `yaml:"chat_model" koanf:"chat_model"`
	EmbeddingModel string       `yaml:"embedding_model" koanf:"embedding_model"`
	BaseURL        string       `yaml:"base_url" koanf:"base_url"`

	StartupName string `yaml:"startup_name" koanf:"startup_name"`

	DocsDir   string   `yaml:"docs_dir" koanf:"docs_dir"`
	DataDir   string   `yaml:"data_dir" koanf:"data_dir"`
	PromptDir string   `yaml:"prompt_dir" koanf:"prompt_dir"`
	CardsFile string   `yaml:"cards_file" koanf:"cards_file"`
	Include   []string `yaml:"include" koanf:"include"`
	Exclude   []string `yaml:"exclude" koanf:"exclude"`

	ChunkSize       int     `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap    int     `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	SimilarityFloor float64 `yaml:"similarity_floor" koanf:"similarity_floor"`
	TopK            int     `yaml:"top_k" koanf:"top_k"`

	ContextTokenBudget int `yaml:"context_token_budget" koanf:"context_token_budget"`
	PitchTokenBudget   int `yaml:"pitch_token_budget" koanf:"pitch_token_budget"`
	MaxResponseTokens  int `yaml:"max_response_tokens" koanf:"max_response_tokens"`
	MaxHistory         int `yaml:"max_history" koanf:"max_history"`

	DefaultLanguage    string   `yaml:"default_language" koanf:"default_language"`
	SupportedLanguages []string `yaml:"supported_languages" koanf:"supported_languages"`

	Server ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
