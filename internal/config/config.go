package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Cfg struct {
	Database   Database
	Logger     Logger
	OpenAI     OpenAI
	Browser    Browser
	Run        Run
	Pacing     Pacing
	Timeouts   Timeouts
	Control    Control
	Selectors  Selectors
	Migrations Migrations
}

type Database struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// Enabled сообщает, что история прогонов пишется в базу.
func (d Database) Enabled() bool {
	return d.Host != ""
}

func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// URL строка подключения в формате, который понимает golang-migrate.
func (d Database) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type Migrations struct {
	Path string
}

type Logger struct {
	Env   string
	Level string
}

type OpenAI struct {
	KeyAI             string
	Model             string
	BaseURL           string
	RequestsPerMinute int
	TokensPerHour     int
}

type Browser struct {
	CDPURL         string
	RequireCDP     bool
	UseCurrentPage bool
	StartURL       string
	SiteHost       string
	Display        string
	Headless       bool
	UserDataDir    string
}

type Run struct {
	JobID         string
	JobQuery      string
	NoJobFilter   bool
	FavoritesList string
	DryRun        bool
	MaxPages      int
	InitialDelay  time.Duration
	LedgerPath    string
	FailedPath    string
	EventLog      string
}

type Pacing struct {
	Speed     float64
	SpeedFile string
	PauseFile string
	PausePoll time.Duration
	ItemMin   time.Duration
	ItemMax   time.Duration
	PageMin   time.Duration
	PageMax   time.Duration
}

type Timeouts struct {
	Default time.Duration
	Action  time.Duration
	Menu    time.Duration
	Modal   time.Duration
	Open    time.Duration
	Signal  time.Duration
	Step    time.Duration
}

// Control HTTP сервер управления прогоном. Пустой адрес отключает сервер.
type Control struct {
	Addr string
}

type Selectors struct {
	File string
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := &Cfg{
		Database: Database{
			Host:     os.Getenv("DB_HOST"),
			Port:     env("DB_PORT", "5432"),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		OpenAI: OpenAI{
			KeyAI:             os.Getenv("OPENAI_API_KEY"),
			Model:             env("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:           os.Getenv("OPENAI_BASE_URL"),
			RequestsPerMinute: envInt("OPENAI_RPM", 20),
			TokensPerHour:     envInt("OPENAI_TPH", 90000),
		},
		Browser: Browser{
			CDPURL:         env("DEBUG_URL", "http://127.0.0.1:9222"),
			RequireCDP:     envBool("REQUIRE_CDP"),
			UseCurrentPage: envBool("USE_CURRENT_PAGE"),
			StartURL:       os.Getenv("START_URL"),
			SiteHost:       env("SITE_HOST", "voices.com"),
			Display:        env("DISPLAY", ":0"),
			Headless:       envBool("PW_HEADLESS"),
			UserDataDir:    env("PW_USER_DATA_DIR", "./userdata"),
		},
		Run: Run{
			JobID:         env("JOB_ID", ""),
			JobQuery:      env("JOB_QUERY", ""),
			NoJobFilter:   envBool("NO_JOB_FILTER"),
			FavoritesList: env("FAVORITES_LIST", ""),
			DryRun:        envBool("DRY_RUN"),
			MaxPages:      envInt("MAX_PAGES", 999),
			InitialDelay:  envDuration("INITIAL_DELAY_MS", 0),
			LedgerPath:    env("LEDGER_PATH", "invited_ids.json"),
			FailedPath:    env("FAILED_PATH", "failed_items.csv"),
			EventLog:      os.Getenv("EVENT_LOG"),
		},
		Pacing: Pacing{
			Speed:     envFloat("SPEED", 1),
			SpeedFile: os.Getenv("SPEED_FILE"),
			PauseFile: env("PAUSE_FILE", "PAUSE"),
			PausePoll: envDuration("PAUSE_POLL_MS", time.Second),
			ItemMin:   envDuration("ITEM_PAUSE_MIN_MS", 900*time.Millisecond),
			ItemMax:   envDuration("ITEM_PAUSE_MAX_MS", 1800*time.Millisecond),
			PageMin:   envDuration("PAGE_PAUSE_MIN_MS", 2*time.Second),
			PageMax:   envDuration("PAGE_PAUSE_MAX_MS", 4*time.Second),
		},
		Timeouts: Timeouts{
			Default: envDuration("DEFAULT_TIMEOUT_MS", 15*time.Second),
			Action:  envDuration("ACTION_TIMEOUT_MS", 10*time.Second),
			Menu:    envDuration("MENU_TIMEOUT_MS", 3*time.Second),
			Modal:   envDuration("MODAL_TIMEOUT_MS", 8*time.Second),
			Open:    envDuration("OPEN_DROPDOWN_MS", 2500*time.Millisecond),
			Signal:  envDuration("SIGNAL_TIMEOUT_MS", 8*time.Second),
			Step:    envDuration("BETWEEN_STEPS_MS", 700*time.Millisecond),
		},
		Control: Control{
			Addr: os.Getenv("CONTROL_ADDR"),
		},
		Selectors: Selectors{
			File: os.Getenv("SELECTORS_FILE"),
		},
		Migrations: Migrations{
			Path: env("MIGRATIONS_PATH", "file://migrations"),
		},
	}

	return cfg, cfg.Validate()
}

// Validate проверяет значения, без которых прогон не имеет смысла.
func (c *Cfg) Validate() error {
	var errs []error
	if c.Run.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("MAX_PAGES должен быть положительным, получено %d", c.Run.MaxPages))
	}
	if c.Pacing.ItemMin > c.Pacing.ItemMax {
		errs = append(errs, errors.New("ITEM_PAUSE_MIN_MS больше ITEM_PAUSE_MAX_MS"))
	}
	if c.Pacing.PageMin > c.Pacing.PageMax {
		errs = append(errs, errors.New("PAGE_PAUSE_MIN_MS больше PAGE_PAUSE_MAX_MS"))
	}
	if c.Database.Enabled() && c.Database.Name == "" {
		errs = append(errs, errors.New("DB_NAME обязателен, когда задан DB_HOST"))
	}
	return errors.Join(errs...)
}

func env(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultValue
}

func envFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

// envDuration читает количество миллисекунд.
func envDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
