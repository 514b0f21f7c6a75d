package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Port               string
	AgentAPIKeys       map[string]struct{}
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	MockMode           bool
	StoreDriver        string
	DatabaseURL        string
	SQLitePath         string
	AutoCreateDB       bool
	MaintenanceDB      string
	CORSAllowedOrigins string

	SearchLimit        int
	ProviderLimit      int
	ProviderTimeout    time.Duration
	GeocoderBaseURL    string
	GeocoderRatePerSec float64
	Park4NightBaseURL  string
	PlaceURLBase       string
	UserAgent          string

	AgentConfigPath string
	MaxToolCalls    int
	HistoryLimit    int

	LogLevel  string
	LogFormat string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "true") || v == "1"
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid " + key + ": " + v)
	}
	return n, nil
}

func parseCSVSet(v string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(v, ",") {
		s := strings.TrimSpace(part)
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}
	return out
}

// Load reads the process environment, after merging a local .env file if one
// exists. Values already set in the environment win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:               strings.TrimSpace(getenv("PORT", "3000")),
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:        strings.TrimSpace(getenv("OPENAI_MODEL", "gpt-4o-mini")),
		OpenAIBaseURL:      strings.TrimSpace(getenv("OPENAI_BASE_URL", "https://api.openai.com/v1")),
		MockMode:           getenvBool("MOCK_MODE"),
		StoreDriver:        strings.ToLower(strings.TrimSpace(getenv("STORE_DRIVER", StorePostgres))),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:         strings.TrimSpace(getenv("SQLITE_PATH", "places.db")),
		AutoCreateDB:       getenvBool("AUTO_CREATE_DB"),
		MaintenanceDB:      strings.TrimSpace(getenv("MAINTENANCE_DB", "postgres")),
		CORSAllowedOrigins: strings.TrimSpace(getenv("CORS_ALLOWED_ORIGINS", "*")),
		GeocoderBaseURL:    strings.TrimSpace(getenv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")),
		Park4NightBaseURL:  strings.TrimSpace(getenv("PARK4NIGHT_BASE_URL", "https://guest.park4night.com/services/V4.1")),
		PlaceURLBase:       strings.TrimSpace(getenv("PLACE_URL_BASE", "https://park4night.com/en/place/")),
		UserAgent:          strings.TrimSpace(getenv("HTTP_USER_AGENT", "CamperAgent/1.0")),
		AgentConfigPath:    strings.TrimSpace(os.Getenv("AGENT_CONFIG_PATH")),
		LogLevel:           strings.TrimSpace(getenv("LOG_LEVEL", "info")),
		LogFormat:          strings.TrimSpace(getenv("LOG_FORMAT", "json")),
	}

	goLog := strings.ToLower(strings.TrimSpace(os.Getenv("GO_LOG")))
	if goLog == "debug" || goLog == "1" || goLog == "true" {
		cfg.LogLevel = "debug"
	}

	keysRaw := strings.TrimSpace(getenv("AGENT_API_KEYS", getenv("AGENT_API_KEY", "")))
	cfg.AgentAPIKeys = parseCSVSet(keysRaw)

	var err error
	if cfg.SearchLimit, err = getenvInt("SEARCH_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if cfg.ProviderLimit, err = getenvInt("PROVIDER_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if cfg.MaxToolCalls, err = getenvInt("MAX_TOOL_CALLS", 4); err != nil {
		return Config{}, err
	}
	if cfg.HistoryLimit, err = getenvInt("HISTORY_LIMIT", 10); err != nil {
		return Config{}, err
	}

	cfg.ProviderTimeout, err = time.ParseDuration(strings.TrimSpace(getenv("PROVIDER_TIMEOUT", "15s")))
	if err != nil {
		return Config{}, errors.New("invalid PROVIDER_TIMEOUT: " + err.Error())
	}
	cfg.GeocoderRatePerSec, err = strconv.ParseFloat(strings.TrimSpace(getenv("GEOCODER_RATE_PER_SEC", "1")), 64)
	if err != nil {
		return Config{}, errors.New("invalid GEOCODER_RATE_PER_SEC: " + err.Error())
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if !cfg.MockMode && cfg.OpenAIAPIKey == "" {
		return errors.New("missing OPENAI_API_KEY")
	}
	if cfg.Port == "" {
		return errors.New("missing PORT")
	}
	switch cfg.StoreDriver {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("missing DATABASE_URL")
		}
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return errors.New("unsupported STORE_DRIVER: " + cfg.StoreDriver)
	}
	if cfg.SearchLimit <= 0 {
		return errors.New("SEARCH_LIMIT must be positive")
	}
	if cfg.ProviderLimit <= 0 {
		return errors.New("PROVIDER_LIMIT must be positive")
	}
	if cfg.ProviderTimeout <= 0 {
		return errors.New("PROVIDER_TIMEOUT must be positive")
	}
	if cfg.GeocoderRatePerSec <= 0 {
		return errors.New("GEOCODER_RATE_PER_SEC must be positive")
	}
	return nil
}
