package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	MQTT      MQTTConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MQTTConfig struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	TopicPrefix       string
	KeepAlive         int // seconds
	ConnectTimeout    int // seconds
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	HeartbeatQoS      byte
	ExchangeQoS       byte
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	viper.SetDefault("MQTT_TOPIC_PREFIX", "iot")
	viper.SetDefault("MQTT_KEEPALIVE", 60)
	viper.SetDefault("MQTT_CONNECT_TIMEOUT", 30)
	viper.SetDefault("MQTT_RECONNECT_ATTEMPTS", 5)
	viper.SetDefault("MQTT_RECONNECT_DELAY_SEC", 5)
	viper.SetDefault("MQTT_HEARTBEAT_QOS", 0)
	viper.SetDefault("MQTT_EXCHANGE_QOS", 1)

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		MQTT: MQTTConfig{
			Broker:            viper.GetString("MQTT_BROKER"),
			ClientID:          viper.GetString("MQTT_CLIENT_ID"),
			Username:          viper.GetString("MQTT_USERNAME"),
			Password:          viper.GetString("MQTT_PASSWORD"),
			TopicPrefix:       viper.GetString("MQTT_TOPIC_PREFIX"),
			KeepAlive:         viper.GetInt("MQTT_KEEPALIVE"),
			ConnectTimeout:    viper.GetInt("MQTT_CONNECT_TIMEOUT"),
			ReconnectAttempts: viper.GetInt("MQTT_RECONNECT_ATTEMPTS"),
			ReconnectDelay:    time.Duration(viper.GetInt("MQTT_RECONNECT_DELAY_SEC")) * time.Second,
			HeartbeatQoS:      byte(viper.GetUint32("MQTT_HEARTBEAT_QOS")),
			ExchangeQoS:       byte(viper.GetUint32("MQTT_EXCHANGE_QOS")),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
