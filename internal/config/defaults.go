package config

// Documented fallback defaults for the insights sampling and size policy.
const (
	DefaultSampleRate          = 1.0
	DefaultMaxTextLength       = 1500
	DefaultMinTextLength       = 20
	DefaultRetrievalTimeoutS   = 8
	DefaultMaxConcurrentEvents = 10
	DefaultHealthPort          = 8080
)

// Defaults returns a config populated with safe defaults. Credentials and
// backend URLs have no defaults; they come from the config file or env.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:            "info",
			MaxConcurrentEvents: DefaultMaxConcurrentEvents,
		},
		Backends: BackendsConfig{
			RetrievalTimeout: DefaultRetrievalTimeoutS,
		},
		Insights: InsightsConfig{
			SampleRate:    FlexFloat{Value: DefaultSampleRate, Set: true},
			MaxTextLength: FlexInt{Value: DefaultMaxTextLength, Set: true},
			MinTextLength: FlexInt{Value: DefaultMinTextLength, Set: true},
		},
		Health: HealthConfig{
			Host: "0.0.0.0",
			Port: DefaultHealthPort,
		},
	}
}
