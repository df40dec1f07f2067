package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type ClerkConfig struct {
	SecretKey string
}

// IsConfigured returns true if all required Clerk configuration is present
func (c ClerkConfig) IsConfigured() bool {
	return c.SecretKey != ""
}

type BotPlatformConfig struct {
	// TokenSigningSecret signs per-invocation bot service tokens.
	TokenSigningSecret string
	// ExecutionTimeout bounds a single command/event handler invocation.
	ExecutionTimeout time.Duration
	// TokenTTL bounds the lifetime of a minted service token.
	TokenTTL time.Duration
	// EventWorkers caps concurrent handler invocations during event fan-out.
	EventWorkers int
}

// IsConfigured returns true if all required bot platform configuration is present
func (c BotPlatformConfig) IsConfigured() bool {
	return c.TokenSigningSecret != ""
}

type AnthropicConfig struct {
	APIKey string
}

// IsConfigured returns true if the Anthropic API key is present
func (c AnthropicConfig) IsConfigured() bool {
	return c.APIKey != ""
}

type SimilarityConfig struct {
	BaseURL string
	APIKey  string
}

// IsConfigured returns true if the similarity service endpoint is present
func (c SimilarityConfig) IsConfigured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL        string
	DatabaseSchema     string
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	UseStrictConfig    bool // If true, error when any integration is not fully configured

	// BaseURL is the externally reachable address bots use to call back
	// into the platform API.
	BaseURL string

	ClerkConfig       ClerkConfig
	BotPlatformConfig BotPlatformConfig
	AnthropicConfig   AnthropicConfig
	SimilarityConfig  SimilarityConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		DatabaseURL:        databaseURL,
		DatabaseSchema:     databaseSchema,
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",

		ClerkConfig: ClerkConfig{
			SecretKey: os.Getenv("CLERK_SECRET_KEY"),
		},

		BotPlatformConfig: BotPlatformConfig{
			TokenSigningSecret: os.Getenv("BOT_TOKEN_SIGNING_SECRET"),
			ExecutionTimeout:   getEnvDurationWithDefault("BOT_EXECUTION_TIMEOUT", 30*time.Second),
			TokenTTL:           getEnvDurationWithDefault("BOT_TOKEN_TTL", 5*time.Minute),
			EventWorkers:       getEnvIntWithDefault("BOT_EVENT_WORKERS", 8),
		},

		AnthropicConfig: AnthropicConfig{
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		},

		SimilarityConfig: SimilarityConfig{
			BaseURL: os.Getenv("SIMILARITY_SERVICE_URL"),
			APIKey:  os.Getenv("SIMILARITY_SERVICE_API_KEY"),
		},
	}

	config.BaseURL = getEnvWithDefault("BASE_URL", "http://localhost:"+config.Port)

	if config.ClerkConfig.IsConfigured() {
		log.Printf("✅ Clerk authentication configured")
	} else {
		log.Printf("⚠️ Clerk authentication not configured - dashboard authentication will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("clerk authentication is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.BotPlatformConfig.IsConfigured() {
		log.Printf("✅ Bot platform configured")
	} else {
		log.Printf("⚠️ Bot platform not configured - bot invocations will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("bot platform is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.AnthropicConfig.IsConfigured() {
		log.Printf("✅ Anthropic integration configured")
	} else {
		log.Printf("⚠️ Anthropic integration not configured - LLM-assisted checks will be disabled")
	}

	if config.SimilarityConfig.IsConfigured() {
		log.Printf("✅ Similarity service configured")
	} else {
		log.Printf("⚠️ Similarity service not configured - plagiarism scans will fail with a clear error")
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️ Invalid duration for %s: %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
