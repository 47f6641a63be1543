// Package config loads the repair assistant configuration from a YAML file
// and PROTECH_* environment variables, fills defaults and validates it.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config is the complete application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Business  BusinessConfig  `mapstructure:"business"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	EmailJS   EmailJSConfig   `mapstructure:"emailjs"`
	Contact   ContactConfig   `mapstructure:"contact"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// BusinessConfig holds the contact details quoted by the assistant.
type BusinessConfig struct {
	Name      string `mapstructure:"name"       validate:"required"`
	ShortName string `mapstructure:"short_name"`
	Phone     string `mapstructure:"phone"      validate:"required"`
	Email     string `mapstructure:"email"      validate:"required,email"`
}

// AssistantConfig tunes the chat front-ends.
type AssistantConfig struct {
	// ReplyDelay is how long the bot shows "typing" before answering.
	ReplyDelay time.Duration `mapstructure:"reply_delay" validate:"min=0,max=10s"`
}

// TelegramConfig configures the Telegram front-end.
type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Token       string `mapstructure:"token"         validate:"required_if=Enabled true"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"gte=0"`
}

// HTTPConfig configures the JSON API used by the marketing site.
type HTTPConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"            validate:"required_if=Enabled true"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=5m"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// EmailJSConfig configures the transactional email relay.
type EmailJSConfig struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	ServiceID  string        `mapstructure:"service_id"`
	TemplateID string        `mapstructure:"template_id"`
	PublicKey  string        `mapstructure:"public_key"`
	PrivateKey string        `mapstructure:"private_key"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"min=1s,max=2m"`
}

// Configured reports whether enough is set to send mail.
func (c EmailJSConfig) Configured() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

// ContactConfig is the outbox policy for contact-form inquiries.
type ContactConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"  validate:"min=1,max=100"`
	Retention    time.Duration `mapstructure:"retention"     validate:"min=1h"`
	BatchSize    int           `mapstructure:"batch_size"    validate:"min=1,max=1000"`
	ClaimTimeout time.Duration `mapstructure:"claim_timeout" validate:"min=1m,max=24h"`
}

// SchedulerConfig lists the scheduled tasks by registry name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task and sets its cron schedule (seconds field allowed).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds the fixed texts the Telegram bot sends.
type MessagesConfig struct {
	Welcome         string `mapstructure:"welcome"          validate:"required"`
	Help            string `mapstructure:"help"             validate:"required"`
	ContactUsage    string `mapstructure:"contact_usage"    validate:"required"`
	ContactInvalid  string `mapstructure:"contact_invalid"  validate:"required"`
	ContactReceived string `mapstructure:"contact_received" validate:"required"`
	ContactQueued   string `mapstructure:"contact_queued"   validate:"required"`
	StatsHeader     string `mapstructure:"stats_header"     validate:"required"`
	StatsEmpty      string `mapstructure:"stats_empty"      validate:"required"`
	Unauthorized    string `mapstructure:"unauthorized"     validate:"required"`
	GeneralError    string `mapstructure:"general_error"    validate:"required"`
}
