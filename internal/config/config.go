package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Device DeviceConfig `yaml:"device"`
	Scrape ScrapeConfig `yaml:"scrape"`
	NATS   NATSConfig   `yaml:"nats"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Loki   LokiConfig   `yaml:"loki"`
	API    APIConfig    `yaml:"api"`
	JWT    JWTConfig    `yaml:"jwt"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig represents service identity
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// DeviceConfig represents the modem target and its credential
type DeviceConfig struct {
	Address            string        `yaml:"address"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	AcceptInvalidCerts bool          `yaml:"accept_invalid_certs"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	MaxAttempts        int           `yaml:"max_attempts"`
	RetryBackoff       time.Duration `yaml:"retry_backoff"`
}

// ScrapeConfig represents the polling loop configuration
type ScrapeConfig struct {
	Interval     time.Duration `yaml:"interval"`
	CycleTimeout time.Duration `yaml:"cycle_timeout"`
	CollectLogs  bool          `yaml:"collect_logs"`
	LogWindow    int           `yaml:"log_window"`
}

// NATSConfig represents the NATS telemetry sink
type NATSConfig struct {
	Enabled           bool          `yaml:"enabled"`
	URL               string        `yaml:"url"`
	SubjectPrefix     string        `yaml:"subject_prefix"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// MQTTConfig represents the MQTT telemetry sink
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

// LokiConfig represents the event log push target
type LokiConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Labels  map[string]string `yaml:"labels"`
}

// APIConfig represents the operational REST API
type APIConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	Secret          string        `yaml:"secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("MODEM_ADDRESS"); addr != "" {
		c.Device.Address = addr
	}
	if user := os.Getenv("MODEM_USERNAME"); user != "" {
		c.Device.Username = user
	}
	if pass := os.Getenv("MODEM_PASSWORD"); pass != "" {
		c.Device.Password = pass
	}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		c.MQTT.Broker = broker
	}
	if lokiURL := os.Getenv("LOKI_URL"); lokiURL != "" {
		c.Loki.URL = lokiURL
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}
}

// setDefaults fills in defaults for everything the file may omit
func (c *Config) setDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "modem-scraper"
	}
	if c.Device.Username == "" {
		c.Device.Username = "admin"
	}
	if c.Device.RequestTimeout == 0 {
		c.Device.RequestTimeout = 10 * time.Second
	}
	if c.Device.MaxAttempts == 0 {
		c.Device.MaxAttempts = 3
	}
	if c.Device.RetryBackoff == 0 {
		c.Device.RetryBackoff = 500 * time.Millisecond
	}
	if c.Scrape.Interval == 0 {
		c.Scrape.Interval = 30 * time.Second
	}
	if c.Scrape.CycleTimeout == 0 {
		c.Scrape.CycleTimeout = 20 * time.Second
	}
	if c.Scrape.LogWindow == 0 {
		c.Scrape.LogWindow = 30
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "modem.stats"
	}
	if c.NATS.MaxReconnects == 0 {
		c.NATS.MaxReconnects = 10
	}
	if c.NATS.ReconnectInterval == 0 {
		c.NATS.ReconnectInterval = 2 * time.Second
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = c.Server.Name
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "modem/stats"
	}
	if c.Loki.Labels == nil {
		c.Loki.Labels = map[string]string{"app": c.Server.Name}
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = 15 * time.Minute
	}
	if c.JWT.RefreshTokenTTL == 0 {
		c.JWT.RefreshTokenTTL = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// validate rejects configurations the scraper cannot run with
func (c *Config) validate() error {
	if c.Device.Address == "" {
		return fmt.Errorf("device.address is required")
	}
	if c.Device.Password == "" {
		return fmt.Errorf("device.password is required (or set MODEM_PASSWORD)")
	}
	if c.Scrape.CycleTimeout > c.Scrape.Interval {
		return fmt.Errorf("scrape.cycle_timeout (%s) must not exceed scrape.interval (%s)",
			c.Scrape.CycleTimeout, c.Scrape.Interval)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats.enabled")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt.enabled")
	}
	if c.Loki.Enabled && c.Loki.URL == "" {
		return fmt.Errorf("loki.url is required when loki.enabled")
	}
	if c.API.Enabled {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required when api.enabled (or set JWT_SECRET)")
		}
		if c.API.Username == "" || c.API.PasswordHash == "" {
			return fmt.Errorf("api.username and api.password_hash are required when api.enabled")
		}
	}
	return nil
}

// APIAddr returns the listen address for the REST API
func (c *Config) APIAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}
