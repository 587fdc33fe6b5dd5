package capability

// OptionURL is the configuration key overriding the store connection URL.
const OptionURL = "URL"

// Configuration is supplied by the host when it binds an actor to the provider.
type Configuration struct {
	// Module is the identity of the actor being configured
	Module string `msgpack:"module" json:"module"`

	// Values holds provider-specific options
	Values map[string]string `msgpack:"values" json:"values"`
}

// Value returns the option stored under key, or def when it is absent or empty.
func (c Configuration) Value(key, def string) string {
	if v, ok := c.Values[key]; ok && v != "" {
		return v
	}
	return def
}
