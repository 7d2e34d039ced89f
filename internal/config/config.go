package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Documented placeholder credentials. A backend is only eligible when its
// credential differs from both the placeholder and the empty string.
const (
	PlaceholderMSG91Key       = "YOUR_MSG91_API_KEY"
	PlaceholderTwilioSID      = "YOUR_TWILIO_ACCOUNT_SID"
	PlaceholderTextLocalKey   = "YOUR_TEXTLOCAL_API_KEY"
	PlaceholderWABusinessTok  = "YOUR_WHATSAPP_ACCESS_TOKEN"
	PlaceholderCallMeBotKey   = "YOUR_CALLMEBOT_API_KEY"
	PlaceholderLocalBotAPIKey = "your-secret-key-123"
)

type Config struct {
	ServerPort  string         `mapstructure:"server_port"`
	DatabaseURL string         `mapstructure:"database_url"`
	JWTSecret   string         `mapstructure:"jwt_secret"`
	CountryCode string         `mapstructure:"country_code"`
	SMS         SMSConfig      `mapstructure:"sms"`
	WhatsApp    WhatsAppConfig `mapstructure:"whatsapp"`
	Push        PushConfig     `mapstructure:"push"`
	Realtime    RealtimeConfig `mapstructure:"realtime"`
	UI          UIConfig       `mapstructure:"ui"`
	Reminder    ReminderConfig `mapstructure:"reminder"`
	HistoryFile string         `mapstructure:"history_file"`
}

type SMSConfig struct {
	Enabled   bool            `mapstructure:"enabled"`
	BulkDelay time.Duration   `mapstructure:"bulk_delay"`
	MSG91     MSG91Config     `mapstructure:"msg91"`
	Twilio    TwilioConfig    `mapstructure:"twilio"`
	TextLocal TextLocalConfig `mapstructure:"textlocal"`
}

type MSG91Config struct {
	APIKey   string `mapstructure:"api_key"`
	SenderID string `mapstructure:"sender_id"`
	FlowID   string `mapstructure:"flow_id"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

type TextLocalConfig struct {
	APIKey string `mapstructure:"api_key"`
	Sender string `mapstructure:"sender"`
}

type WhatsAppConfig struct {
	Enabled   bool             `mapstructure:"enabled"`
	BulkDelay time.Duration    `mapstructure:"bulk_delay"`
	LocalBot  LocalBotConfig   `mapstructure:"local_bot"`
	Business  WABusinessConfig `mapstructure:"business"`
	Twilio    TwilioConfig     `mapstructure:"twilio"`
	CallMeBot CallMeBotConfig  `mapstructure:"callmebot"`
}

// LocalBotConfig must be opted into explicitly. The default API URL alone is
// not treated as "configured", so a stock install logs instead of messaging.
type LocalBotConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIURL  string `mapstructure:"api_url"`
	APIKey  string `mapstructure:"api_key"`
}

type WABusinessConfig struct {
	AccessToken   string `mapstructure:"access_token"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
}

type CallMeBotConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type PushConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Topic   string `mapstructure:"topic"`
}

type RealtimeConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	SoundEnabled bool `mapstructure:"sound_enabled"`
	ShowPopups   bool `mapstructure:"show_popups"`
}

type UIConfig struct {
	NotificationDuration time.Duration `mapstructure:"notification_duration"`
	MaxHistoryItems      int           `mapstructure:"max_history_items"`
}

type ReminderConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	CronSpec   string        `mapstructure:"cron_spec"`
	WarnBefore time.Duration `mapstructure:"warn_before"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	// Channel and realtime toggles are on unless the file turns them off.
	// These cannot live in ApplyDefaults: an unmarshalled false is
	// indistinguishable from an absent key.
	v.SetDefault("sms.enabled", true)
	v.SetDefault("whatsapp.enabled", true)
	v.SetDefault("push.enabled", true)
	v.SetDefault("realtime.enabled", true)
	v.SetDefault("realtime.sound_enabled", true)
	v.SetDefault("realtime.show_popups", true)
	v.SetDefault("reminder.enabled", true)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}

	ApplyDefaults(&config)
	return &config
}

// ApplyDefaults fills fallback values on any unset field. Split out of Load
// so tests can build configs without a file on disk.
func ApplyDefaults(config *Config) {
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.CountryCode == "" {
		config.CountryCode = "91"
	}
	if config.SMS.BulkDelay == 0 {
		config.SMS.BulkDelay = time.Second
	}
	if config.SMS.MSG91.APIKey == "" {
		config.SMS.MSG91.APIKey = PlaceholderMSG91Key
	}
	if config.SMS.MSG91.SenderID == "" {
		config.SMS.MSG91.SenderID = "AMTYOT"
	}
	if config.SMS.Twilio.AccountSID == "" {
		config.SMS.Twilio.AccountSID = PlaceholderTwilioSID
	}
	if config.SMS.TextLocal.APIKey == "" {
		config.SMS.TextLocal.APIKey = PlaceholderTextLocalKey
	}
	if config.SMS.TextLocal.Sender == "" {
		config.SMS.TextLocal.Sender = "AMTYOT"
	}
	if config.WhatsApp.BulkDelay == 0 {
		config.WhatsApp.BulkDelay = 2 * time.Second
	}
	if config.WhatsApp.LocalBot.APIURL == "" {
		config.WhatsApp.LocalBot.APIURL = "http://localhost:3001"
	}
	if config.WhatsApp.LocalBot.APIKey == "" {
		config.WhatsApp.LocalBot.APIKey = PlaceholderLocalBotAPIKey
	}
	if config.WhatsApp.Business.AccessToken == "" {
		config.WhatsApp.Business.AccessToken = PlaceholderWABusinessTok
	}
	if config.WhatsApp.Twilio.AccountSID == "" {
		config.WhatsApp.Twilio.AccountSID = PlaceholderTwilioSID
	}
	if config.WhatsApp.CallMeBot.APIKey == "" {
		config.WhatsApp.CallMeBot.APIKey = PlaceholderCallMeBotKey
	}
	if config.UI.NotificationDuration == 0 {
		config.UI.NotificationDuration = 5 * time.Second
	}
	if config.UI.MaxHistoryItems == 0 {
		config.UI.MaxHistoryItems = 50
	}
	if config.Reminder.CronSpec == "" {
		config.Reminder.CronSpec = "@every 15m"
	}
	if config.Reminder.WarnBefore == 0 {
		config.Reminder.WarnBefore = 24 * time.Hour
	}
	if config.HistoryFile == "" {
		config.HistoryFile = "notification_history.json"
	}
}

// Configured reports whether a credential is usable: non-empty and not the
// documented placeholder.
func Configured(value, placeholder string) bool {
	return value != "" && value != placeholder
}
