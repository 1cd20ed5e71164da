package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all application environment variables,
// e.g. WATCHTOWER_SERVER_PORT maps to server.port.
const envPrefix = "WATCHTOWER"

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// If configPath is empty, a config.yaml in the working directory is used
// when present; a missing file is not an error.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Environment variables: WATCHTOWER_SERVER_PORT, WATCHTOWER_LLM_MODEL_NAME, ...
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The two external-service secrets are also honored under their
	// conventional plain names so deployments don't need to rename them.
	if err := v.BindEnv("github.token", "WATCHTOWER_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind github token env: %w", err)
	}
	if err := v.BindEnv("llm.gemini_api_key", "WATCHTOWER_LLM_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind gemini key env: %w", err)
	}

	// Optional config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults establishes default values so the service starts with only
// the database URL and (optionally) the two API secrets configured.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Registered with an empty default so AutomaticEnv picks the key up
	// during Unmarshal; validation still rejects a missing URL.
	v.SetDefault("database.url", "")

	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.user_agent", "watchtower-api/1.0")
	v.SetDefault("github.issue_window_days", 7)
	v.SetDefault("github.max_releases", 5)
	v.SetDefault("github.issues_per_page", 50)
	v.SetDefault("github.max_retries", 3)
	v.SetDefault("github.timeout_seconds", 30)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)
	v.SetDefault("task.stuck_check_int_minutes", 5)

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.spec", "@weekly")
}
