package config

import (
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/whisky_backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

const (
	DefaultPort          = "8080"
	DefaultPageSize      = 10
	DefaultMaxPageSize   = 100
	DefaultExportMaxRows = 5000
)

// Settings is the environment-level configuration of the server and tools.
type Settings struct {
	Port               string `validate:"required,numeric"`
	Env                string
	CorsAllowedOrigins []string

	DBDriver          string `validate:"oneof=mysql sqlite"`
	DBHost            string
	DBPort            string `validate:"omitempty,numeric"`
	DBUser            string
	DBPassword        string
	DBName            string
	DBDSN             string
	DBMaxOpenConns    int `validate:"gte=1"`
	DBMaxIdleConns    int `validate:"gte=0"`
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	GormLogLevel      string `validate:"oneof=silent error warn info"`

	DefaultPageSize int `validate:"gte=1,ltefield=MaxPageSize"`
	MaxPageSize     int `validate:"gte=1"`
	ExportMaxRows   int `validate:"gte=1"`

	RedisAddress         string
	RateLimitEnabled     bool
	RateLimitMaxRequests int64 `validate:"gte=1"`
	RateLimitWindow      time.Duration

	LogLevel  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `validate:"oneof=json text"`

	SkipMigrations bool
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// LoadSettings reads the environment and validates the result.
func LoadSettings() (*Settings, error) {
	port := utils.StringFromEnv("API_PORT", "")
	if port == "" {
		port = utils.StringFromEnv("PORT", DefaultPort)
	}

	s := &Settings{
		Port:               port,
		Env:                utils.StringFromEnv("GO_ENV", "development"),
		CorsAllowedOrigins: utils.SplitAndTrim(utils.StringFromEnv("CORS_ALLOWED_ORIGINS", "")),

		DBDriver:          strings.ToLower(utils.StringFromEnv("DB_DRIVER", "mysql")),
		DBHost:            utils.StringFromEnv("DB_HOST", "127.0.0.1"),
		DBPort:            utils.StringFromEnv("DB_PORT", "3306"),
		DBUser:            utils.StringFromEnv("DB_USER", "root"),
		DBPassword:        utils.StringFromEnv("DB_PASSWORD", ""),
		DBName:            utils.StringFromEnv("DB_NAME", "whisky_scraper"),
		DBDSN:             utils.StringFromEnv("DB_DSN", ""),
		DBMaxOpenConns:    utils.IntFromEnv("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    utils.IntFromEnv("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: time.Duration(utils.IntFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second,
		DBConnMaxIdleTime: time.Duration(utils.IntFromEnv("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)) * time.Second,
		GormLogLevel:      strings.ToLower(utils.StringFromEnv("GORM_LOG_LEVEL", "error")),

		DefaultPageSize: utils.IntFromEnv("DEFAULT_PAGE_SIZE", DefaultPageSize),
		MaxPageSize:     utils.IntFromEnv("MAX_PAGE_SIZE", DefaultMaxPageSize),
		ExportMaxRows:   utils.IntFromEnv("EXPORT_MAX_ROWS", DefaultExportMaxRows),

		RedisAddress:         utils.StringFromEnv("REDIS_ADDRESS", ""),
		RateLimitEnabled:     utils.BoolFromEnv("RATE_LIMIT_ENABLED"),
		RateLimitMaxRequests: int64(utils.IntFromEnv("RATE_LIMIT_MAX_REQUESTS", 600)),
		RateLimitWindow:      time.Duration(utils.IntFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		LogLevel:  strings.ToLower(utils.StringFromEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(utils.StringFromEnv("LOG_FORMAT", "json")),

		SkipMigrations: utils.BoolFromEnv("SKIP_MIGRATIONS"),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(fields, ", "))
		}
		return err
	}
	if s.DBDriver == "sqlite" && s.DBDSN == "" {
		return fmt.Errorf("invalid settings: DB_DSN is required for the sqlite driver")
	}
	return nil
}

func (s *Settings) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(s.Env), "production")
}

// DSN returns the driver data source name. DB_DSN overrides the composed MySQL DSN.
func (s *Settings) DSN() string {
	if s.DBDSN != "" {
		return s.DBDSN
	}

	cfg := mysql.NewConfig()
	cfg.User = s.DBUser
	cfg.Passwd = s.DBPassword
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%s", s.DBHost, s.DBPort)
	// Cloud SQL: DB_HOST=/cloudsql/<CONNECTION_NAME> connects through the auth proxy socket.
	if strings.HasPrefix(s.DBHost, "/cloudsql/") {
		cfg.Net = "unix"
		cfg.Addr = s.DBHost
	}
	cfg.DBName = s.DBName
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}
