package llm

// Options is the common configuration surface shared by all adapters.
// Vendor-specific limits (output token caps, sampling parameters) are applied
// from here so callers never touch vendor knobs directly.
type Options struct {
	Provider        string  // "anthropic", "openai", "ollama", "gemini", ...
	Model           string  // empty selects the catalog default
	APIKey          string
	BaseURL         string  // OpenAI-compatible endpoints and local runtimes
	MaxOutputTokens int     // 0 selects the catalog cap for the model
	Temperature     float64
}

// New constructs the adapter for the configured vendor. Anthropic and OpenAI
// get native adapters; every other vendor is served through the gollm-backed
// adapter.
func New(opts Options) (Provider, error) {
	model := opts.Model
	if model == "" {
		model = DefaultModel(opts.Provider)
	}

	switch opts.Provider {
	case "anthropic":
		if opts.APIKey == "" {
			return nil, &ConfigError{BaseError: BaseError{Message: "anthropic: API key is required"}}
		}
		return NewAnthropic(opts.APIKey, model, opts), nil
	case "openai":
		if opts.APIKey == "" {
			return nil, &ConfigError{BaseError: BaseError{Message: "openai: API key is required"}}
		}
		return NewOpenAI(opts.APIKey, model, opts), nil
	case "ollama":
		o := opts
		if o.BaseURL == "" {
			o.BaseURL = "http://localhost:11434/v1"
		}
		if o.APIKey == "" {
			o.APIKey = "ollama" // the runtime ignores it, the SDK requires one
		}
		return NewOpenAI(o.APIKey, model, o), nil
	case "":
		return nil, &ConfigError{BaseError: BaseError{Message: "no model provider configured"}}
	default:
		return NewGollm(opts.Provider, model, opts)
	}
}
