package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"camper-agent-service/internal/config"
	"camper-agent-service/internal/handlers"
	"camper-agent-service/internal/logger"
	"camper-agent-service/internal/routes"
	"camper-agent-service/internal/services"
	"camper-agent-service/internal/store"
)

type placeStore interface {
	services.PlaceStore
	EnsureSchema(ctx context.Context) error
}

func connectDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func databaseDoesNotExist(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 3D000: invalid_catalog_name
		return string(pqErr.Code) == "3D000"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "does not exist") && strings.Contains(msg, "database")
}

func ensureDatabaseExists(ctx context.Context, cfg config.Config) error {
	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if strings.TrimSpace(dbName) == "" {
		return errors.New("DATABASE_URL missing database name")
	}

	maint := *u
	maint.Path = "/" + strings.TrimSpace(cfg.MaintenanceDB)
	maintDB, err := connectDB(ctx, maint.String())
	if err != nil {
		return err
	}
	defer maintDB.Close()

	var exists int
	err = maintDB.QueryRowContext(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", dbName).Scan(&exists)
	if err == sql.ErrNoRows {
		exists = 0
		err = nil
	}
	if err != nil {
		return err
	}
	if exists == 1 {
		return nil
	}

	_, err = maintDB.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName))
	return err
}

func openStore(ctx context.Context, cfg config.Config) (placeStore, func(), error) {
	if cfg.StoreDriver == config.StoreSQLite {
		s, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}

	db, err := connectDB(ctx, cfg.DatabaseURL)
	if err != nil && cfg.AutoCreateDB && databaseDoesNotExist(err) {
		if err2 := ensureDatabaseExists(ctx, cfg); err2 != nil {
			return nil, nil, err2
		}
		db, err = connectDB(ctx, cfg.DatabaseURL)
	}
	if err != nil {
		return nil, nil, err
	}
	return store.NewPostgresStore(db), func() { _ = db.Close() }, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	profile, err := config.LoadAgentProfile(cfg.AgentConfigPath)
	if err != nil {
		log.Fatal("load agent profile", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	places, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("open place store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()
	if err := places.EnsureSchema(ctx); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	providerHTTP := &http.Client{Timeout: cfg.ProviderTimeout}
	provider := &services.GeoPlaceProvider{
		Geocoder: services.NewGeocoder(cfg.GeocoderBaseURL, cfg.UserAgent, providerHTTP, cfg.GeocoderRatePerSec, 24*time.Hour),
		Places: &services.Park4NightClient{
			BaseURL:      cfg.Park4NightBaseURL,
			PlaceURLBase: cfg.PlaceURLBase,
			UserAgent:    cfg.UserAgent,
			HTTP:         providerHTTP,
		},
		Breaker: services.NewProviderBreaker(log),
		Timeout: cfg.ProviderTimeout,
		Logger:  log,
	}

	search := &services.LazySearch{
		Store:         places,
		Provider:      provider,
		StoreLimit:    cfg.SearchLimit,
		ProviderLimit: cfg.ProviderLimit,
		Logger:        log,
	}

	chatSvc := &services.ChatService{
		MockMode: cfg.MockMode,
		Search:   search,
		Apology:  profile.Apology,
		Logger:   log,
	}
	if !cfg.MockMode {
		chatSvc.Agent = &services.ToolAgent{
			LLM: &services.OpenAIClient{
				APIKey:  cfg.OpenAIAPIKey,
				Model:   cfg.OpenAIModel,
				BaseURL: cfg.OpenAIBaseURL,
				HTTP:    &http.Client{Timeout: 60 * time.Second},
			},
			Search:       search,
			Profile:      profile,
			MaxToolCalls: cfg.MaxToolCalls,
			HistoryLimit: cfg.HistoryLimit,
			Logger:       log,
		}
	}

	chatHandlers := &handlers.ChatHandlers{Chat: chatSvc, Logger: log}
	h := routes.NewRouter(cfg, log, chatHandlers)

	addr := ":" + cfg.Port
	log.Info("camper-agent-service listening",
		zap.String("addr", addr),
		zap.String("store", cfg.StoreDriver),
		zap.String("agent", profile.Name),
		zap.Bool("mock", cfg.MockMode),
	)
	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
