// Package config loads service configuration from the environment.
//
// An optional .env file in the working directory is read first; variables
// already present in the environment win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/database"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// App is the top-level service configuration.
type App struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Env      string `envconfig:"ENV" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Store selects the storage backend: "postgres" or "memory".
	Store          string        `envconfig:"STORE" default:"postgres"`
	TxMaxRetries   int           `envconfig:"TX_MAX_RETRIES" default:"5"`
	TxRetryBackoff time.Duration `envconfig:"TX_RETRY_BACKOFF" default:"20ms"`

	// Timezone decides what "today" is when checking reservation windows.
	Timezone string `envconfig:"EVENT_TIMEZONE" default:"Asia/Tokyo"`

	SurveyQuestionsFile string `envconfig:"SURVEY_QUESTIONS_FILE"`

	AuditRabbitURL string `envconfig:"AUDIT_RABBIT_URL"`
	AuditExchange  string `envconfig:"AUDIT_EXCHANGE" default:"reservation.audit"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// AdminToken guards /admin. Empty disables the admin API.
	AdminToken string `envconfig:"ADMIN_TOKEN"`

	Database database.Config `ignored:"true"`
}

// Load reads .env (if present) and the process environment.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return App{}, fmt.Errorf("load .env: %w", err)
	}

	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, fmt.Errorf("process env: %w", err)
	}
	if err := envconfig.Process("", &c.Database); err != nil {
		return App{}, fmt.Errorf("process db env: %w", err)
	}
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return App{}, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if c.TxMaxRetries < 1 {
		return App{}, fmt.Errorf("TX_MAX_RETRIES must be at least 1")
	}
	return c, nil
}

// Location resolves Timezone.
func (c App) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("EVENT_TIMEZONE: %w", err)
	}
	return loc, nil
}

// Logger builds the JSON logger for the configured level.
func (c App) Logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// surveyFile is the on-disk layout of the survey question schema.
type surveyFile struct {
	Questions []model.Question `yaml:"questions"`
}

// LoadSurveyQuestions reads the survey question schema from a YAML file.
// An empty path yields no questions.
func LoadSurveyQuestions(path string) ([]model.Question, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read survey questions: %w", err)
	}
	var f surveyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse survey questions %s: %w", path, err)
	}
	seen := make(map[string]bool, len(f.Questions))
	for i, q := range f.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("survey question %d: id is required", i)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("survey question %q: duplicate id", q.ID)
		}
		seen[q.ID] = true
		switch q.Type {
		case model.QuestionRating, model.QuestionBoolean, model.QuestionChoice, model.QuestionText:
		default:
			return nil, fmt.Errorf("survey question %q: unknown type %q", q.ID, q.Type)
		}
	}
	return f.Questions, nil
}
