// Ininicializing common application configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ProviderTogether = "together"
	ProviderGemini   = "gemini"

	DefaultTogetherModel = "meta-llama/Llama-3.2-11B-Vision-Instruct-Turbo"
	DefaultGeminiModel   = "gemini-2.0-flash"

	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	App       AppConfig       `mapstructure:"app"`
	Inference InferenceConfig `mapstructure:"inference"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"appVersion"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port" validate:"required"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
}

type AppConfig struct {
	MaxUploadSize  int64    `mapstructure:"max_upload_size" validate:"gt=0"`
	AllowedFormats []string `mapstructure:"allowed_formats" validate:"required,min=1"`
	TempDir        string   `mapstructure:"temp_dir"`
	PreviewSize    int      `mapstructure:"preview_size" validate:"gt=0"`
}

// InferenceConfig selects the hosted vision-language model. Credentials are
// never read from the yaml file, only from the environment.
type InferenceConfig struct {
	Provider       string `mapstructure:"provider" validate:"oneof=together gemini"`
	Model          string `mapstructure:"model" validate:"required"`
	BaseURL        string `mapstructure:"base_url"`
	Prompt         string `mapstructure:"prompt" validate:"required"`
	TogetherAPIKey string `mapstructure:"together_api_key"`
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
}

type SessionConfig struct {
	Backend         string        `mapstructure:"backend" validate:"oneof=memory redis"`
	UploadTTL       time.Duration `mapstructure:"upload_ttl" validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Настройки пула соединений
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// APIKey returns the credential of the configured provider. An empty value is
// legal here: the inference client reports it when a call is attempted.
func (c InferenceConfig) APIKey() string {
	if c.Provider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.TogetherAPIKey
}

func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)
	bindEnv(viperInstance)

	err := viperInstance.ReadInConfig()

	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// the hosted providers document these names, keep them as they are
	_ = v.BindEnv("inference.together_api_key", "TOGETHER_API_KEY")
	_ = v.BindEnv("inference.gemini_api_key", "GEMINI_API_KEY")
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.appVersion", "1.0.0")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("app.max_upload_size", 10<<20)
	v.SetDefault("app.allowed_formats", []string{".jpg", ".jpeg", ".png"})
	v.SetDefault("app.temp_dir", os.TempDir())
	v.SetDefault("app.preview_size", 800)

	v.SetDefault("inference.provider", ProviderTogether)
	v.SetDefault("inference.model", DefaultTogetherModel)
	v.SetDefault("inference.base_url", "https://api.together.xyz/v1")
	v.SetDefault("inference.prompt", "You will be given an image, tell me the details about that image")

	v.SetDefault("session.backend", SessionBackendMemory)
	v.SetDefault("session.upload_ttl", 30*time.Minute)
	v.SetDefault("session.cleanup_interval", 5*time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "image-analysis")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "image_analyser")
}
