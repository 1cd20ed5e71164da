package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	GitHub   GitHubConfig   `mapstructure:"github"   validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Task     TaskConfig     `mapstructure:"task"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database related settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// GitHubConfig contains settings for the GitHub metadata fetcher.
// Token is optional: unauthenticated requests work with lower rate limits.
type GitHubConfig struct {
	Token           string `mapstructure:"token"`
	BaseURL         string `mapstructure:"base_url"          validate:"required,url"`
	UserAgent       string `mapstructure:"user_agent"        validate:"required"`
	IssueWindowDays int    `mapstructure:"issue_window_days" validate:"required,gt=0"`
	MaxReleases     int    `mapstructure:"max_releases"      validate:"required,gt=0"`
	IssuesPerPage   int    `mapstructure:"issues_per_page"   validate:"required,gt=0,lte=100"`
	MaxRetries      int    `mapstructure:"max_retries"       validate:"gte=0"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"   validate:"required,gt=0"`
}

// LLMConfig contains all LLM integration related settings.
// When GeminiAPIKey is empty the agent pipeline falls back to the
// heuristic analyzer, so the key is not required.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	ModelName         string `mapstructure:"model_name"          validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// RedisConfig contains settings for the GitHub response cache.
// An empty Addr disables caching entirely.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// TaskConfig contains settings for the background task runner.
type TaskConfig struct {
	WorkerCount          int `mapstructure:"worker_count"            validate:"gte=0"`
	QueueSize            int `mapstructure:"queue_size"              validate:"gte=0"`
	StuckTaskAgeMinutes  int `mapstructure:"stuck_task_age_minutes"  validate:"gte=0"`
	StuckCheckIntMinutes int `mapstructure:"stuck_check_int_minutes" validate:"gte=0"`
}

// ScheduleConfig contains settings for automatic weekly report generation.
type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
}
