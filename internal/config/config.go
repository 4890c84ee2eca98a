// Package config loads process configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration. Storage and archive backends are
// resolved separately from their own HOTLAB_STORAGE_* / HOTLAB_ARCHIVE_*
// variables; this struct covers the service surface around them.
type Config struct {
	HTTPAddr        string
	TickInterval    time.Duration
	ExtractionYield float64
	LogLevel        string
	Redis           RedisConfig
	MQTT            MQTTConfig
}

// RedisConfig configures the Redis Streams alert backend. Disabled while
// Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

// MQTTConfig configures the MQTT alert backend. Disabled while Broker is
// empty.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
}

// Defaults returns the development configuration.
func Defaults() Config {
	return Config{
		HTTPAddr:     ":8080",
		TickInterval: 30 * time.Second,
		LogLevel:     "info",
		MQTT:         MQTTConfig{ClientID: "hotlabd", QoS: 1},
	}
}

// Load reads an optional .env file, then overlays HOTLAB_* environment
// variables on the defaults. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := Defaults()

	if addr := os.Getenv("HOTLAB_HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if raw := os.Getenv("HOTLAB_TICK_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("HOTLAB_TICK_INTERVAL: %w", err)
		}
		cfg.TickInterval = interval
	}
	if raw := os.Getenv("HOTLAB_EXTRACTION_YIELD"); raw != "" {
		yield, err := strconv.ParseFloat(raw, 64)
		if err != nil || yield <= 0 || yield > 1 {
			return Config{}, fmt.Errorf("HOTLAB_EXTRACTION_YIELD must be in (0,1], got %q", raw)
		}
		cfg.ExtractionYield = yield
	}
	if level := os.Getenv("HOTLAB_LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	cfg.Redis.LoadFromEnv("HOTLAB_REDIS")
	cfg.MQTT.LoadFromEnv("HOTLAB_MQTT")
	return cfg, nil
}

// LoadFromEnv overlays prefixed environment variables onto the config.
func (c *RedisConfig) LoadFromEnv(prefix string) {
	if addr := os.Getenv(prefix + "_ADDR"); addr != "" {
		c.Addr = addr
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if raw := os.Getenv(prefix + "_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			c.DB = db
		}
	}
	if stream := os.Getenv(prefix + "_STREAM"); stream != "" {
		c.Stream = stream
	}
}

// LoadFromEnv overlays prefixed environment variables onto the config.
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	if broker := os.Getenv(prefix + "_BROKER"); broker != "" {
		c.Broker = broker
	}
	if clientID := os.Getenv(prefix + "_CLIENT_ID"); clientID != "" {
		c.ClientID = clientID
	}
	if username := os.Getenv(prefix + "_USERNAME"); username != "" {
		c.Username = username
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if topic := os.Getenv(prefix + "_TOPIC_PREFIX"); topic != "" {
		c.TopicPrefix = topic
	}
	if raw := os.Getenv(prefix + "_QOS"); raw != "" {
		if qos, err := strconv.Atoi(raw); err == nil && qos >= 0 && qos <= 2 {
			c.QoS = byte(qos)
		}
	}
}
