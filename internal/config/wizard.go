package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(configPath string) (*Config, error) {
	fmt.Println("Welcome to boothchat! Let's configure your booth assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select model provider",
		Items: []string{"openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	if cfg.Provider == ProviderOllama {
		cfg.ChatModel = "llama3.1"
		cfg.EmbeddingModel = "nomic-embed-text"
		cfg.BaseURL = "http://localhost:11434/v1"
	}

	// 2. Startup identity.
	namePrompt := promptui.Prompt{
		Label:   "Startup name",
		Default: cfg.StartupName,
	}
	if cfg.StartupName, err = namePrompt.Run(); err != nil {
		return nil, fmt.Errorf("startup name: %w", err)
	}

	// 3. Documents directory.
	docsPrompt := promptui.Prompt{
		Label:   "Directory with pitch PDFs",
		Default: cfg.DocsDir,
	}
	if cfg.DocsDir, err = docsPrompt.Run(); err != nil {
		return nil, fmt.Errorf("docs dir: %w", err)
	}

	// 4. Languages.
	langPrompt := promptui.Prompt{
		Label:   "Supported languages (comma-separated codes)",
		Default: strings.Join(cfg.SupportedLanguages, ","),
	}
	langStr, err := langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("languages: %w", err)
	}
	cfg.SupportedLanguages = splitAndTrim(langStr)
	if len(cfg.SupportedLanguages) > 0 {
		cfg.DefaultLanguage = cfg.SupportedLanguages[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running boothchat serve.\n", envVar)
	}

	if err := cfg.Save(configPath); err != nil {
		return nil, err
	}
	fmt.Printf("\nConfiguration written to %s\n", configPath)
	return cfg, nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
