package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"camper-agent-service/internal/logger"
	"camper-agent-service/internal/models"
)

type PlaceStore interface {
	FindPlaces(ctx context.Context, term string, limit int) ([]models.Place, int, error)
	UpsertPlace(ctx context.Context, p models.Place) error
}

// PlaceProvider looks places up outside the store. An unresolvable location
// is an empty slice, not an error.
type PlaceProvider interface {
	Lookup(ctx context.Context, location string, limit int) ([]models.Place, error)
}

type SearchStatus string

const (
	StatusCached  SearchStatus = "cached"
	StatusFetched SearchStatus = "fetched"
	StatusNoMatch SearchStatus = "no_match"
)

type SearchResult struct {
	Places       []models.Place
	TotalMatched int
	Status       SearchStatus
}

// LazySearch serves searches from the store and populates it from the
// provider on a miss.
type LazySearch struct {
	Store         PlaceStore
	Provider      PlaceProvider
	StoreLimit    int
	ProviderLimit int
	Logger        *zap.Logger
}

// Search tries the store first. Only an empty (or failed) store read reaches
// the provider, which is called at most once. Fetched places are upserted one
// by one and returned as fetched, without reading them back.
func (s *LazySearch) Search(ctx context.Context, term string) (SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return SearchResult{}, fmt.Errorf("%w: empty search term", ErrInvalidInput)
	}
	log := logger.OrNop(s.Logger).With(zap.String("term", term))

	if s.Store != nil {
		places, total, err := s.Store.FindPlaces(ctx, term, positiveOr(s.StoreLimit, 10))
		if err != nil {
			placeStoreErrors.WithLabelValues("find").Inc()
			log.Warn("place store read failed, falling back to provider", zap.Error(err))
		} else if len(places) > 0 {
			placeSearches.WithLabelValues("cache").Inc()
			log.Debug("served from store", zap.Int("count", len(places)), zap.Int("total", total))
			return SearchResult{Places: places, TotalMatched: total, Status: StatusCached}, nil
		}
	}

	fetched := s.lookup(ctx, log, term)
	if len(fetched) == 0 {
		placeSearches.WithLabelValues("no_match").Inc()
		log.Info("no places found")
		return SearchResult{Places: []models.Place{}, Status: StatusNoMatch}, nil
	}

	s.persist(ctx, log, term, fetched)
	placeSearches.WithLabelValues("provider").Inc()
	log.Info("served from provider", zap.Int("count", len(fetched)))
	return SearchResult{Places: fetched, TotalMatched: len(fetched), Status: StatusFetched}, nil
}

func (s *LazySearch) lookup(ctx context.Context, log *zap.Logger, term string) []models.Place {
	if s.Provider == nil {
		return nil
	}
	start := time.Now()
	places, err := s.Provider.Lookup(ctx, term, positiveOr(s.ProviderLimit, 10))
	if err != nil {
		providerDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		log.Warn("place provider lookup failed", zap.Error(err))
		return nil
	}
	providerDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return places
}

// persist upserts each place independently. The stored copy remembers term as
// its area, and its position in the response, so the same search hits the
// store next time and lists the places in the same order.
func (s *LazySearch) persist(ctx context.Context, log *zap.Logger, term string, places []models.Place) {
	if s.Store == nil {
		return
	}
	for i, p := range places {
		if strings.TrimSpace(p.URL) == "" {
			log.Warn("place has no url, not persisted", zap.String("name", p.Name))
			continue
		}
		rec := p
		rec.FetchRank = i
		if strings.TrimSpace(rec.Area) == "" {
			rec.Area = term
		}
		if err := s.Store.UpsertPlace(ctx, rec); err != nil {
			placeStoreErrors.WithLabelValues("upsert").Inc()
			log.Error("failed to persist place", zap.String("url", p.URL), zap.Error(err))
		}
	}
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
