package oracle

import (
	"fmt"

	"evicite/internal/config"
	"evicite/internal/port"
)

// ProviderFactory is a function that creates a RelevanceOracle from a provider config.
type ProviderFactory func(cfg *config.OracleProviderConfig) (port.RelevanceOracle, error)

// registry of oracle provider factories, populated explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an oracle provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewOracle creates a RelevanceOracle from a provider config using the registered factory.
func NewOracle(cfg *config.OracleProviderConfig) (port.RelevanceOracle, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
