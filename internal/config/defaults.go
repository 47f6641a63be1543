package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultBusinessName      = "Pro‑Tech Computer Repairs"
	DefaultBusinessShortName = "Pro‑Tech"
	DefaultBusinessPhone     = "+263 71 769 2705"
	DefaultBusinessEmail     = "shepherdmakasa06@gmail.com"

	DefaultAssistantReplyDelay = 350 * time.Millisecond

	DefaultHTTPAddr           = ":8080"
	DefaultHTTPRequestTimeout = 30 * time.Second

	DefaultDBPath = "storage.db"

	DefaultEmailJSBaseURL = "https://api.emailjs.com"
	DefaultEmailJSTimeout = 15 * time.Second

	DefaultContactMaxAttempts  = 5
	DefaultContactRetention    = 30 * 24 * time.Hour
	DefaultContactBatchSize    = 50
	DefaultContactClaimTimeout = 10 * time.Minute
)

// DefaultTasks are the scheduler jobs enabled out of the box.
var DefaultTasks = map[string]TaskConfig{
	"inquiry_relay":   {Enabled: true, Schedule: "0 */5 * * * *"},
	"inquiry_cleanup": {Enabled: true, Schedule: "0 30 3 * * *"},
	"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * 0"},
}

// DefaultMessages are the bot texts used unless overridden.
var DefaultMessages = MessagesConfig{
	Welcome: "👋 Welcome to the Pro‑Tech assistant! Ask me anything about OS installation, activation, " +
		"software installs, PC unlocking, upgrades or drivers.",
	Help: "I answer questions about our repair services. Just type your question.\n\n" +
		"Commands:\n" +
		"/contact Name | email | phone | message - send us a message\n" +
		"/help - show this help",
	ContactUsage:    "ℹ️ Usage: /contact Name | email | phone (optional) | message",
	ContactInvalid:  "📝 Some details look wrong: %s",
	ContactReceived: "✅ Message sent! We will get back to you soon. Reference: %s",
	ContactQueued:   "⏳ Sorry, there was a problem sending your message. We saved it and will retry shortly. Reference: %s",
	StatsHeader:     "📊 Topic counters:\n\n",
	StatsEmpty:      "No questions recorded yet.",
	Unauthorized:    "🚫 You are not authorized to use this command.",
	GeneralError:    "❌ An error occurred. Please try again later.",
}

// setDefaults registers default values for every optional key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("business.name", DefaultBusinessName)
	v.SetDefault("business.phone", DefaultBusinessPhone)
	v.SetDefault("business.email", DefaultBusinessEmail)

	v.SetDefault("assistant.reply_delay", DefaultAssistantReplyDelay)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", DefaultHTTPAddr)
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.request_timeout", DefaultHTTPRequestTimeout)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("emailjs.base_url", DefaultEmailJSBaseURL)
	v.SetDefault("emailjs.service_id", "")
	v.SetDefault("emailjs.template_id", "")
	v.SetDefault("emailjs.public_key", "")
	v.SetDefault("emailjs.private_key", "")
	v.SetDefault("emailjs.timeout", DefaultEmailJSTimeout)

	v.SetDefault("contact.max_attempts", DefaultContactMaxAttempts)
	v.SetDefault("contact.retention", DefaultContactRetention)
	v.SetDefault("contact.batch_size", DefaultContactBatchSize)
	v.SetDefault("contact.claim_timeout", DefaultContactClaimTimeout)

	tasks := make(map[string]any, len(DefaultTasks))
	for name, task := range DefaultTasks {
		tasks[name] = map[string]any{"enabled": task.Enabled, "schedule": task.Schedule}
	}
	v.SetDefault("scheduler.tasks", tasks)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.contact_usage", DefaultMessages.ContactUsage)
	v.SetDefault("messages.contact_invalid", DefaultMessages.ContactInvalid)
	v.SetDefault("messages.contact_received", DefaultMessages.ContactReceived)
	v.SetDefault("messages.contact_queued", DefaultMessages.ContactQueued)
	v.SetDefault("messages.stats_header", DefaultMessages.StatsHeader)
	v.SetDefault("messages.stats_empty", DefaultMessages.StatsEmpty)
	v.SetDefault("messages.unauthorized", DefaultMessages.Unauthorized)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
}
