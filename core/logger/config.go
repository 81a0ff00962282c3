package logger

// Config holds logger settings.
type Config struct {
	// Level is the minimum level that gets emitted: debug, info, warn, error.
	Level string `mapstructure:"level" default:"info"`
	// Format selects the encoder: json or console.
	Format string `mapstructure:"format" default:"json"`
}
