package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	ServiceBus    ServiceBusConfig
	Elasticsearch ElasticsearchConfig
	NewRelic      NewRelicConfig
	SMTP          SMTPConfig
	Telegram      TelegramConfig
	WhatsApp      WhatsAppConfig
	Watchdog      WatchdogConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port int
	Mode string // debug, release, test
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Debug    bool
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServiceBusConfig holds the Azure Service Bus configuration
type ServiceBusConfig struct {
	ConnectionString string
	QueueName        string
}

// ElasticsearchConfig holds the Elasticsearch configuration
type ElasticsearchConfig struct {
	Enabled  bool
	URL      string
	Username string
	Password string
	Index    string
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// SMTPConfig holds the outbound email configuration
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// TelegramConfig holds the Telegram bot configuration
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// WhatsAppConfig holds the WhatsApp Business API configuration
type WhatsAppConfig struct {
	Token     string
	PhoneID   string
	Recipient string
}

// WatchdogConfig holds the silent-sensor watchdog configuration
type WatchdogConfig struct {
	Interval        time.Duration
	SilentThreshold time.Duration
}

// InitConfig initializes the configuration using Viper
func InitConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/coldchain")
		viper.SetConfigName("config")
	}

	// COLDCHAIN_SERVER_PORT overrides server.port, and so on
	viper.SetEnvPrefix("COLDCHAIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// Load builds the Config from the initialized viper state
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("server.port"),
			Mode: viper.GetString("server.mode"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("database.host"),
			Port:     viper.GetInt("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			DBName:   viper.GetString("database.dbname"),
			SSLMode:  viper.GetString("database.sslmode"),
			Debug:    viper.GetBool("database.debug"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetInt("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		ServiceBus: ServiceBusConfig{
			ConnectionString: viper.GetString("servicebus.connectionstring"),
			QueueName:        viper.GetString("servicebus.queuename"),
		},
		Elasticsearch: ElasticsearchConfig{
			Enabled:  viper.GetBool("elasticsearch.enabled"),
			URL:      viper.GetString("elasticsearch.url"),
			Username: viper.GetString("elasticsearch.username"),
			Password: viper.GetString("elasticsearch.password"),
			Index:    viper.GetString("elasticsearch.index"),
		},
		NewRelic: NewRelicConfig{
			AppName:    viper.GetString("newrelic.appname"),
			LicenseKey: viper.GetString("newrelic.licensekey"),
			Enabled:    viper.GetBool("newrelic.enabled"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("smtp.host"),
			Port:     viper.GetInt("smtp.port"),
			From:     viper.GetString("smtp.from"),
			Username: viper.GetString("smtp.username"),
			Password: viper.GetString("smtp.password"),
		},
		Telegram: TelegramConfig{
			BotToken: viper.GetString("telegram.bottoken"),
			ChatID:   viper.GetString("telegram.chatid"),
		},
		WhatsApp: WhatsAppConfig{
			Token:     viper.GetString("whatsapp.token"),
			PhoneID:   viper.GetString("whatsapp.phoneid"),
			Recipient: viper.GetString("whatsapp.recipient"),
		},
		Watchdog: WatchdogConfig{
			Interval:        viper.GetDuration("watchdog.interval"),
			SilentThreshold: viper.GetDuration("watchdog.silentthreshold"),
		},
	}

	return cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "coldchain")
	viper.SetDefault("database.password", "coldchain")
	viper.SetDefault("database.dbname", "coldchain_db")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.debug", false)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Service Bus defaults - no default connection string for security
	viper.SetDefault("servicebus.queuename", "coldchain-alerts")

	// Elasticsearch defaults
	viper.SetDefault("elasticsearch.enabled", false)
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("elasticsearch.index", "coldchain-measurements")

	// New Relic defaults
	viper.SetDefault("newrelic.appname", "Coldchain Monitoring Local")
	viper.SetDefault("newrelic.enabled", false)

	// SMTP defaults
	viper.SetDefault("smtp.host", "localhost")
	viper.SetDefault("smtp.port", 25)
	viper.SetDefault("smtp.from", "alerts@coldchain.local")

	// Watchdog defaults
	viper.SetDefault("watchdog.interval", "5m")
	viper.SetDefault("watchdog.silentthreshold", "30m")
}
