package parley

import (
	"errors"

	"github.com/casualjim/parley/provider"
	"github.com/fogfish/opts"
)

// CallOption overrides a single completion request.
type CallOption = opts.Option[provider.Options]

var (
	// WithProvider selects the provider. Unknown tags use the custom adapter.
	WithProvider = opts.ForName[provider.Options, provider.Tag]("Provider")
	WithModel    = opts.ForName[provider.Options, string]("Model")
	// WithTemperature sets the sampling temperature.
	WithTemperature = opts.ForName[provider.Options, float64]("Temperature")
	WithMaxTokens   = opts.ForName[provider.Options, int]("MaxTokens")
	// WithAPIKey takes precedence over configured credentials.
	WithAPIKey = opts.ForName[provider.Options, string]("APIKey")
	// WithEndpoint takes precedence over configured and default endpoints.
	WithEndpoint = opts.ForName[provider.Options, string]("Endpoint")
)

// WithExtra adds a provider-specific top-level body field. Extra fields are
// written after the standard ones and replace them on collision.
func WithExtra(key string, value any) CallOption {
	return opts.Type[provider.Options](func(o *provider.Options) error {
		if key == "" {
			return errors.New("extra field name must not be empty")
		}
		if o.Extra == nil {
			o.Extra = make(map[string]any)
		}
		o.Extra[key] = value
		return nil
	})
}
