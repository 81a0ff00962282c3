package netbox

// Config holds configuration for the NetBox API client.
type Config struct {
	// Addr is the base address of the NetBox instance, e.g. "https://netbox.example.com".
	// The /api prefix is appended by the client.
	Addr string `mapstructure:"addr" default:""`
	// Token is the API token presented on every request.
	Token string `mapstructure:"token" default:""`
	// PageSize is the limit used for paginated list requests.
	PageSize int `mapstructure:"page_size" default:"100"`
	// RateLimit caps the number of API requests in flight at once.
	RateLimit int `mapstructure:"rate_limit" default:"100"`
	// TimeoutSeconds bounds a single API request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
}

// Validate checks that the client can be constructed at all. It runs before
// any network activity so a missing address or token fails the process fast.
func (c Config) Validate() error {
	if c.Addr == "" {
		return ErrAddrEmpty
	}
	if c.Token == "" {
		return ErrTokenEmpty
	}
	return nil
}
