package llm

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID            string   `json:"id"`
	Provider      string   `json:"provider"`
	DisplayName   string   `json:"display_name"`
	ContextWindow int      `json:"context_window"`
	MaxOutput     int      `json:"max_output"`
	Aliases       []string `json:"aliases,omitempty"`
}

// Models is the built-in catalog of supported models, newest first per
// provider. The first entry for a provider is its default.
var Models = []ModelInfo{
	{
		ID: "claude-sonnet-4-5", Provider: "anthropic", DisplayName: "Claude Sonnet 4.5",
		ContextWindow: 200000, MaxOutput: 16384,
		Aliases: []string{"sonnet", "claude-sonnet"},
	},
	{
		ID: "claude-opus-4-6", Provider: "anthropic", DisplayName: "Claude Opus 4.6",
		ContextWindow: 200000, MaxOutput: 32768,
		Aliases: []string{"opus", "claude-opus"},
	},
	{
		ID: "gpt-5.2", Provider: "openai", DisplayName: "GPT-5.2",
		ContextWindow: 1047576, MaxOutput: 32768,
		Aliases: []string{"gpt5"},
	},
	{
		ID: "gpt-5.2-mini", Provider: "openai", DisplayName: "GPT-5.2 Mini",
		ContextWindow: 1047576, MaxOutput: 16384,
		Aliases: []string{"gpt5-mini"},
	},
	{
		ID: "gemini-3-pro-preview", Provider: "gemini", DisplayName: "Gemini 3 Pro (Preview)",
		ContextWindow: 1048576, MaxOutput: 65536,
		Aliases: []string{"gemini-pro"},
	},
	{
		ID: "llama3.1", Provider: "ollama", DisplayName: "Llama 3.1 (local)",
		ContextWindow: 131072, MaxOutput: 8192,
		Aliases: []string{"llama"},
	},
}

// Lookup returns the catalog entry for a model ID or alias, or nil.
func Lookup(modelID string) *ModelInfo {
	for i := range Models {
		if Models[i].ID == modelID {
			return &Models[i]
		}
		for _, alias := range Models[i].Aliases {
			if alias == modelID {
				return &Models[i]
			}
		}
	}
	return nil
}

// SupportedModels returns the model IDs for a provider, or all IDs when
// provider is empty.
func SupportedModels(provider string) []string {
	var ids []string
	for _, m := range Models {
		if provider == "" || m.Provider == provider {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// DefaultModel returns the default model ID for a provider, or "" when the
// provider has no catalog entries.
func DefaultModel(provider string) string {
	for _, m := range Models {
		if m.Provider == provider {
			return m.ID
		}
	}
	return ""
}

// maxOutputFor resolves the output token cap for a model, falling back to a
// conservative default for models outside the catalog.
func maxOutputFor(modelID string, configured int) int {
	if configured > 0 {
		return configured
	}
	if info := Lookup(modelID); info != nil {
		return info.MaxOutput
	}
	return 4096
}
