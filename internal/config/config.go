package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"bookinghub/internal/schedule"

	"github.com/joho/godotenv"
)

// Policy holds the booking policy constants that used to be scattered across
// component variants: slot granularity, operating window, minimum notice and
// whether an update must be confirmed by email before it is committed.
type Policy struct {
	Window schedule.Window

	// MinNotice is how long before start a booking can still be cancelled
	// or moved. One hour, matching the promise made in confirmation
	// emails.
	MinNotice time.Duration

	// RequireUpdateEmail gates edits behind a successfully sent
	// review-before-commit email.
	RequireUpdateEmail bool

	// ReminderLead is how far before start the reminder job notifies.
	ReminderLead time.Duration
}

type Config struct {
	DatabaseURL string
	Port        string
	JWTSecret   string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	AllowedOrigins []string

	Policy Policy
}

// Load reads configuration from the environment, loading a .env file first
// if present.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Port:              getenv("PORT", "8080"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
		SendGridFromName:  getenv("SENDGRID_FROM_NAME", "BookingHub"),
		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:  os.Getenv("TWILIO_FROM_NUMBER"),
		AllowedOrigins:    []string{getenv("ALLOWED_ORIGIN", "*")},
		Policy: Policy{
			Window: schedule.Window{
				OpenHour:    getenvInt("BOOKING_OPEN_HOUR", schedule.DefaultWindow.OpenHour),
				CloseHour:   getenvInt("BOOKING_CLOSE_HOUR", schedule.DefaultWindow.CloseHour),
				Granularity: time.Hour,
			},
			MinNotice:          time.Duration(getenvInt("BOOKING_MIN_NOTICE_HOURS", 1)) * time.Hour,
			RequireUpdateEmail: getenv("BOOKING_REQUIRE_UPDATE_EMAIL", "true") == "true",
			ReminderLead:       time.Hour,
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
