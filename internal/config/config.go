package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	DeliveryPolicyFail = "fail"
	DeliveryPolicyWarn = "warn"
)

// Config centraliza la configuracion del servicio.
type Config struct {
	AppEnv          string `env:"APP_ENV" envDefault:"production"`
	HTTPPort        string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL     string `env:"DATABASE_URL,required,notEmpty"`
	RunMigrations   bool   `env:"DB_RUN_MIGRATIONS" envDefault:"true"`
	AuthLandingPath string `env:"AUTH_LANDING_PATH" envDefault:"/feed"`

	SessionSecret       string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"gradnet_session"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	OTPTTL            time.Duration `env:"OTP_TTL" envDefault:"10m"`
	OTPDeliveryPolicy string        `env:"OTP_DELIVERY_POLICY" envDefault:"fail"`
	OTPRateWindow     time.Duration `env:"OTP_RATE_WINDOW" envDefault:"10m"`
	OTPRateMax        int           `env:"OTP_RATE_MAX" envDefault:"3"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"GradNet"`
	EmailLogOnly bool   `env:"EMAIL_LOG_ONLY" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	S3Endpoint   string        `env:"S3_ENDPOINT"`
	S3Region     string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket     string        `env:"S3_BUCKET"`
	S3AccessKey  string        `env:"S3_ACCESS_KEY"`
	S3SecretKey  string        `env:"S3_SECRET_KEY"`
	S3PresignTTL time.Duration `env:"S3_PRESIGN_TTL" envDefault:"15m"`
}

// LoadConfig carga la configuracion desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must not be empty")
	}
	switch c.OTPDeliveryPolicy {
	case DeliveryPolicyFail, DeliveryPolicyWarn:
	default:
		return fmt.Errorf("OTP_DELIVERY_POLICY must be %q or %q, got %q", DeliveryPolicyFail, DeliveryPolicyWarn, c.OTPDeliveryPolicy)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.OTPTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	if c.OTPRateMax <= 0 {
		return fmt.Errorf("OTP_RATE_MAX must be positive")
	}
	return nil
}

// IsLocal indica si el servicio corre en modo desarrollo.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local" || c.AppEnv == "development"
}

// MediaEnabled indica si hay bucket configurado para subidas.
func (c *Config) MediaEnabled() bool {
	return c.S3Bucket != "" && c.S3Endpoint != ""
}
