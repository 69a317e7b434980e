package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the portal UX agent.
type Config struct {
	Port          int
	Version       string
	PublicBaseURL string // base for viewUrl links returned by tool calls
	DefaultUserID string
	SeedDemo      bool // seed a sample composition for the default user

	Intent    IntentConfig
	Store     StoreConfig
	Telemetry TelemetryConfig
}

type IntentConfig struct {
	Timeout time.Duration

	// Azure OpenAI (Azure AI Foundry) settings for the intent generator.
	AzureEndpoint   string
	AzureAPIKey     string
	AzureDeployment string
	AzureAPIVersion string
}

type StoreConfig struct {
	// TTL <= 0 disables composition eviction entirely.
	TTL           time.Duration
	SweepInterval time.Duration
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Azure returns true when the Azure OpenAI generator is configured.
func (c IntentConfig) Azure() bool {
	return c.AzureEndpoint != "" && c.AzureAPIKey != "" && c.AzureDeployment != ""
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	port := envInt("PORTAL_PORT", 3000)
	return &Config{
		Port:          port,
		Version:       envStr("PORTAL_VERSION", "1.0.0"),
		PublicBaseURL: envStr("PORTAL_BASE_URL", "http://localhost:"+strconv.Itoa(port)),
		DefaultUserID: envStr("DEFAULT_USER_ID", "default"),
		SeedDemo:      envBool("PORTAL_SEED_DEMO", false),
		Intent: IntentConfig{
			Timeout:         envDur("INTENT_TIMEOUT", 12*time.Second),
			AzureEndpoint:   envStr("AZURE_OPENAI_ENDPOINT", ""),
			AzureAPIKey:     envStr("AZURE_OPENAI_API_KEY", ""),
			AzureDeployment: envStr("AZURE_OPENAI_DEPLOYMENT", "gpt-5-mini"),
			AzureAPIVersion: envStr("AZURE_OPENAI_API_VERSION", "2024-10-01-preview"),
		},
		Store: StoreConfig{
			TTL:           envDur("COMPOSITION_TTL", 0),
			SweepInterval: envDur("COMPOSITION_SWEEP_INTERVAL", 10*time.Minute),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "portal-ux-agent"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
