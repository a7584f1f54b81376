package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Ops       OpsConfig       `mapstructure:"ops"`
	DB        DBConfig        `mapstructure:"db"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Fraud     FraudConfig     `mapstructure:"fraud"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OpsConfig описывает служебный сервер со здоровьем и метриками
type OpsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type DBConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
	MigrateOnStart  bool          `mapstructure:"migrate_on_start"`
}

type JWTConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	ExpiresIn int    `mapstructure:"expires_in"` // в часах
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// FraudConfig содержит адрес скорера и политику блокировки
type FraudConfig struct {
	URL             string        `mapstructure:"url"`
	APIKey          string        `mapstructure:"api_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BlockLabel      string        `mapstructure:"block_label"`
	BlockThreshold  float64       `mapstructure:"block_threshold"`
	FrequencyWindow time.Duration `mapstructure:"frequency_window"`
	FailOpen        bool          `mapstructure:"fail_open"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text|json
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DSN формирует строку подключения для драйвера gorm
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
	)
}

// URL формирует строку подключения для golang-migrate
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("ops.enabled", true)
	v.SetDefault("ops.port", 9090)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "bank_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 100)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", time.Hour)
	v.SetDefault("db.log_level", "error")
	v.SetDefault("db.migrate_on_start", true)

	v.SetDefault("jwt.secret_key", "your-secret-key-here")
	v.SetDefault("jwt.expires_in", 24)

	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "your-email@gmail.com")
	v.SetDefault("smtp.password", "your-app-password")
	v.SetDefault("smtp.from", "your-email@gmail.com")

	v.SetDefault("fraud.url", "https://api-inference.huggingface.co/models/CiferAI/cifer-fraud-detection-k1-a")
	v.SetDefault("fraud.api_key", "")
	v.SetDefault("fraud.timeout", 3*time.Second)
	v.SetDefault("fraud.block_label", "fraud")
	v.SetDefault("fraud.block_threshold", 0.8)
	v.SetDefault("fraud.frequency_window", 7*24*time.Hour)
	v.SetDefault("fraud.fail_open", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)
}

// NewConfig создает новый экземпляр конфигурации.
// Порядок приоритета: переменные окружения, файл config.yaml, значения по умолчанию.
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if path := os.Getenv("BANKLY_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}

	// DB_HOST -> db.host, FRAUD_BLOCK_THRESHOLD -> fraud.block_threshold
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate отклоняет значения, с которыми сервер не сможет работать корректно
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("неверный порт сервера: %d", c.Server.Port)
	}
	if c.Ops.Enabled && (c.Ops.Port <= 0 || c.Ops.Port > 65535) {
		return fmt.Errorf("неверный порт ops-сервера: %d", c.Ops.Port)
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		return fmt.Errorf("неверный порт базы данных: %d", c.DB.Port)
	}
	if c.JWT.SecretKey == "" {
		return errors.New("не задан секретный ключ JWT")
	}
	if c.JWT.ExpiresIn <= 0 {
		return fmt.Errorf("неверное время жизни JWT: %d", c.JWT.ExpiresIn)
	}
	if c.Fraud.BlockThreshold <= 0 || c.Fraud.BlockThreshold > 1 {
		return fmt.Errorf("порог блокировки скорера должен быть в (0, 1], получено %v", c.Fraud.BlockThreshold)
	}
	if c.Fraud.Timeout <= 0 {
		return errors.New("таймаут скорера должен быть положительным")
	}
	if c.Fraud.FrequencyWindow <= 0 {
		return errors.New("окно подсчета частоты операций должно быть положительным")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("лимит запросов и окно ограничения должны быть положительными")
	}
	return nil
}
