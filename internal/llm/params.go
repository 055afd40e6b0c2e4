package llm

// Params are the generation parameters sent with every completion call.
// They are process-wide defaults passed explicitly per call, never
// mutable shared state, so tests can override them call by call.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// Default generation settings, applied to both the intent call and the
// answer call unless a caller overrides them.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// DefaultParams returns the process-wide generation defaults.
func DefaultParams() Params {
	return Params{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}
