package llm

import "fmt"

// Tier selects which of the two fixed model deployments serves a
// request. An explicit enum rather than a boolean flag keeps the
// resolution in one place instead of duplicated branches at call sites.
type Tier int

const (
	// TierStandard is the default, cheaper model deployment.
	TierStandard Tier = iota

	// TierAdvanced is the higher-quality model deployment.
	TierAdvanced
)

// String implements fmt.Stringer for logging.
func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierAdvanced:
		return "advanced"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier maps a wire-format tier name to a Tier. The empty string
// means the caller expressed no preference and gets the standard tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "", "standard":
		return TierStandard, nil
	case "advanced":
		return TierAdvanced, nil
	default:
		return TierStandard, fmt.Errorf("llm: unknown tier %q", s)
	}
}

// Facade holds the two long-lived model clients and resolves a Tier to
// one of them. Both clients are shared across requests; resolution is a
// pure lookup done once per request.
type Facade struct {
	standard *ChatClient
	advanced *ChatClient
}

// NewFacade creates a facade over the two deployment clients. The
// advanced client may be nil, in which case TierAdvanced falls back to
// the standard deployment.
func NewFacade(standard, advanced *ChatClient) (*Facade, error) {
	if standard == nil {
		return nil, fmt.Errorf("llm: standard client is required")
	}
	return &Facade{standard: standard, advanced: advanced}, nil
}

// ForTier returns the client serving the given tier.
func (f *Facade) ForTier(t Tier) *ChatClient {
	if t == TierAdvanced && f.advanced != nil {
		return f.advanced
	}
	return f.standard
}
