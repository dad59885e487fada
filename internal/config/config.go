package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string

	GeminiAPIKey string

	StripeSecretKey  string
	StripePriceBasic string
	StripePricePro   string

	GmailCredentialsFile string
	GmailTokenFile       string
	DisableGmail         bool

	CORSAllowedOrigins []string
}

func Load() (Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePriceBasic:     os.Getenv("STRIPE_PRICE_BASIC"),
		StripePricePro:       os.Getenv("STRIPE_PRICE_PRO"),
		GmailCredentialsFile: getenv("GMAIL_CREDENTIALS_FILE", "credential.json"),
		GmailTokenFile:       getenv("GMAIL_TOKEN_FILE", "token.json"),
		DisableGmail:         getenv("DISABLE_GMAIL", "false") == "true",
	}

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}

	for _, o := range strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
