package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Email     EmailConfig
	OTP       OTPConfig
	Booking   BookingConfig
	Payment   PaymentConfig
	Stripe    StripeConfig
	PayPal    PayPalConfig
	Google    GoogleConfig
	RabbitMQ  RabbitMQConfig
	RateLimit RateLimitConfig
	Sweeper   SweeperConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	Timezone    string
	FrontendURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

// RedisConfig is optional; an empty Addr selects the in-memory slot lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EmailConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string
	FromName    string
	BrevoAPIKey string
}

type OTPConfig struct {
	ExpiryMinutes int
	Length        int
}

type BookingConfig struct {
	OpenHour             int
	CloseHour            int
	SlotMinutes          int
	PaymentWindowMinutes int
	LockTTL              time.Duration
	LockWait             time.Duration
}

type PaymentConfig struct {
	Currency        string
	PlatformFeeRate float64
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Mode         string
}

type GoogleConfig struct {
	ClientID            string
	CalendarID          string
	CalendarCredentials string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type SweeperConfig struct {
	IntervalMinutes int
	ExpiryMinutes   int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "salon-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("APP_TIMEZONE", "Asia/Manila")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("EMAIL_FROM_NAME", "Salon Booking")
	viper.SetDefault("OTP_EXPIRY_MINUTES", 10)
	viper.SetDefault("OTP_LENGTH", 6)
	viper.SetDefault("BOOKING_OPEN_HOUR", 9)
	viper.SetDefault("BOOKING_CLOSE_HOUR", 18)
	viper.SetDefault("BOOKING_SLOT_MINUTES", 30)
	viper.SetDefault("PAYMENT_WINDOW_MINUTES", 15)
	viper.SetDefault("SLOT_LOCK_TTL_SECONDS", 10)
	viper.SetDefault("SLOT_LOCK_WAIT_SECONDS", 3)
	viper.SetDefault("PAYMENT_CURRENCY", "PHP")
	viper.SetDefault("PLATFORM_FEE_RATE", 0.03)
	viper.SetDefault("PAYPAL_MODE", "sandbox")
	viper.SetDefault("RABBITMQ_EXCHANGE", "salon.events")
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("SWEEPER_INTERVAL_MINUTES", 0)
	viper.SetDefault("SWEEPER_EXPIRY_MINUTES", 15)

	// .env is optional when the process environment carries the settings
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			Timezone:    viper.GetString("APP_TIMEZONE"),
			FrontendURL: viper.GetString("FRONTEND_URL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Email: EmailConfig{
			Host:        viper.GetString("SMTP_HOST"),
			Port:        viper.GetInt("SMTP_PORT"),
			User:        viper.GetString("SMTP_USER"),
			Password:    viper.GetString("SMTP_PASS"),
			From:        viper.GetString("EMAIL_FROM"),
			FromName:    viper.GetString("EMAIL_FROM_NAME"),
			BrevoAPIKey: viper.GetString("BREVO_API_KEY"),
		},
		OTP: OTPConfig{
			ExpiryMinutes: viper.GetInt("OTP_EXPIRY_MINUTES"),
			Length:        viper.GetInt("OTP_LENGTH"),
		},
		Booking: BookingConfig{
			OpenHour:             viper.GetInt("BOOKING_OPEN_HOUR"),
			CloseHour:            viper.GetInt("BOOKING_CLOSE_HOUR"),
			SlotMinutes:          viper.GetInt("BOOKING_SLOT_MINUTES"),
			PaymentWindowMinutes: viper.GetInt("PAYMENT_WINDOW_MINUTES"),
			LockTTL:              time.Duration(viper.GetInt("SLOT_LOCK_TTL_SECONDS")) * time.Second,
			LockWait:             time.Duration(viper.GetInt("SLOT_LOCK_WAIT_SECONDS")) * time.Second,
		},
		Payment: PaymentConfig{
			Currency:        viper.GetString("PAYMENT_CURRENCY"),
			PlatformFeeRate: viper.GetFloat64("PLATFORM_FEE_RATE"),
		},
		Stripe: StripeConfig{
			SecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
		},
		PayPal: PayPalConfig{
			ClientID:     viper.GetString("PAYPAL_CLIENT_ID"),
			ClientSecret: viper.GetString("PAYPAL_CLIENT_SECRET"),
			Mode:         viper.GetString("PAYPAL_MODE"),
		},
		Google: GoogleConfig{
			ClientID:            viper.GetString("GOOGLE_CLIENT_ID"),
			CalendarID:          viper.GetString("GOOGLE_CALENDAR_ID"),
			CalendarCredentials: viper.GetString("GOOGLE_CALENDAR_CREDENTIALS_FILE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      viper.GetString("RABBITMQ_URL"),
			Exchange: viper.GetString("RABBITMQ_EXCHANGE"),
		},
		RateLimit: RateLimitConfig{
			RPS:   viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst: viper.GetInt("RATE_LIMIT_BURST"),
		},
		Sweeper: SweeperConfig{
			IntervalMinutes: viper.GetInt("SWEEPER_INTERVAL_MINUTES"),
			ExpiryMinutes:   viper.GetInt("SWEEPER_EXPIRY_MINUTES"),
		},
	}

	return config, nil
}

// Location resolves the configured business timezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
