package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Env  string `mapstructure:"ENV"`
	Port string `mapstructure:"PORT"`
	// GRPCPort serves the health service only.
	GRPCPort string `mapstructure:"GRPC_PORT"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	RedisAddr  string `mapstructure:"REDIS_ADDR"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FrontendURL    string `mapstructure:"FRONTEND_URL"`

	ClerkSecretKey string `mapstructure:"CLERK_SECRET_KEY"`
	ClerkAPIURL    string `mapstructure:"CLERK_API_URL"`
	ClerkJWTKey    string `mapstructure:"CLERK_JWT_KEY"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripeAPIURL        string `mapstructure:"STRIPE_API_URL"`
	Currency            string `mapstructure:"CURRENCY"`

	SFTPHost         string `mapstructure:"SFTP_HOST"`
	SFTPPort         int    `mapstructure:"SFTP_PORT"`
	SFTPUser         string `mapstructure:"SFTP_USER"`
	SFTPPassword     string `mapstructure:"SFTP_PASSWORD"`
	SFTPDir          string `mapstructure:"SFTP_DIR"`
	ThumbnailBaseURL string `mapstructure:"THUMBNAIL_BASE_URL"`

	SendGridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	SenderEmail    string `mapstructure:"SENDER_EMAIL"`
	RollbarToken   string `mapstructure:"ROLLBAR_TOKEN"`

	ReconcileSchedule string `mapstructure:"RECONCILE_SCHEDULE"`
	EnrollMaxAttempts int    `mapstructure:"ENROLL_MAX_ATTEMPTS"`
}

var keys = []string{
	"ENV", "PORT", "GRPC_PORT",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "REDIS_ADDR",
	"ALLOWED_ORIGINS", "FRONTEND_URL",
	"CLERK_SECRET_KEY", "CLERK_API_URL", "CLERK_JWT_KEY",
	"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "STRIPE_API_URL", "CURRENCY",
	"SFTP_HOST", "SFTP_PORT", "SFTP_USER", "SFTP_PASSWORD", "SFTP_DIR", "THUMBNAIL_BASE_URL",
	"SENDGRID_API_KEY", "SENDER_EMAIL", "ROLLBAR_TOKEN",
	"RECONCILE_SCHEDULE", "ENROLL_MAX_ATTEMPTS",
}

// LoadConfig reads <path>/app.env when present, then the environment.
// A .env in the working directory is loaded first for local runs.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", ":5000")
	v.SetDefault("GRPC_PORT", ":50051")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("CLERK_API_URL", "https://api.clerk.com")
	v.SetDefault("STRIPE_API_URL", "https://api.stripe.com")
	v.SetDefault("CURRENCY", "usd")
	v.SetDefault("SFTP_PORT", 22)
	v.SetDefault("SFTP_DIR", "/uploads/thumbnails")
	v.SetDefault("RECONCILE_SCHEDULE", "@every 1m")
	v.SetDefault("ENROLL_MAX_ATTEMPTS", 3)

	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, errors.Wrap(err, "read app.env")
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "decode config")
	}
	return config, nil
}

func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) IsProduction() bool { return c.Env == "production" }
