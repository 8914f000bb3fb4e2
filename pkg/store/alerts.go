package store

import (
	"context"
	"sync"

	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/cache"
	"github.com/marshallshelly/stockdash/pkg/config"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/sirupsen/logrus"
)

// AlertAPI is the backend surface of AlertStore.
type AlertAPI interface {
	AlertSettings(ctx context.Context) (*model.AlertSettings, error)
	UpdateAlertSettings(ctx context.Context, s model.AlertSettings) error
}

// Source tells where a singleton value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceRemote  Source = "remote"
	SourceCache   Source = "cache"
)

// AlertStore holds the alert settings singleton. Reads try the server, then
// the cache, then the defaults; writes that fail are kept in the cache.
type AlertStore struct {
	api   AlertAPI
	gate  Gate
	cache cache.Cache
	log   logrus.FieldLogger

	mu       sync.RWMutex
	settings model.AlertSettings
	source   Source
}

// NewAlertStore creates an AlertStore holding the defaults.
func NewAlertStore(api AlertAPI, gate Gate, c cache.Cache, log logrus.FieldLogger) *AlertStore {
	return &AlertStore{
		api:      api,
		gate:     gate,
		cache:    c,
		log:      log,
		settings: model.DefaultAlertSettings(),
		source:   SourceDefault,
	}
}

// Load refreshes the settings. It never fails; the returned error only
// reports that the server could not be used.
func (s *AlertStore) Load(ctx context.Context) error {
	remote, err := s.api.AlertSettings(ctx)
	if err == nil {
		if cerr := s.cache.Set(ctx, cache.KeyAlertSettings, remote); cerr != nil {
			config.LogError(s.log, "store", "AlertStore.Load", "write through alert settings", nil, cerr)
		}
		s.set(*remote, SourceRemote)
		return nil
	}

	var cached model.AlertSettings
	if ok, cerr := s.cache.Get(ctx, cache.KeyAlertSettings, &cached); cerr == nil && ok {
		s.set(cached, SourceCache)
		return err
	}
	s.set(model.DefaultAlertSettings(), SourceDefault)
	return err
}

// Save persists settings. When the server rejects or cannot be reached the
// settings are still kept in the cache and a LocalFallbackError is returned.
func (s *AlertStore) Save(ctx context.Context, settings model.AlertSettings) error {
	if err := s.gate.RequireAdmin(); err != nil {
		return err
	}

	err := s.api.UpdateAlertSettings(ctx, settings)
	if cerr := s.cache.Set(ctx, cache.KeyAlertSettings, settings); cerr != nil {
		config.LogError(s.log, "store", "AlertStore.Save", "write alert settings", settings, cerr)
		if err != nil {
			return err
		}
	}

	if err != nil {
		s.set(settings, SourceCache)
		return &apperr.LocalFallbackError{Err: err}
	}
	s.set(settings, SourceRemote)
	return nil
}

// Settings returns the current settings.
func (s *AlertStore) Settings() model.AlertSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Source returns where the current settings came from.
func (s *AlertStore) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *AlertStore) set(settings model.AlertSettings, src Source) {
	s.mu.Lock()
	s.settings = settings
	s.source = src
	s.mu.Unlock()
}

// StatsAPI is the backend surface of DashboardStore.
type StatsAPI interface {
	DashboardStats(ctx context.Context, r model.DateRange) (*model.DashboardStats, error)
}

// DashboardStore holds the summary statistics for a date range.
type DashboardStore struct {
	*RemoteStore[model.DashboardStats, model.DateRange]
}

// NewDashboardStore creates a DashboardStore.
func NewDashboardStore(api StatsAPI, log logrus.FieldLogger) *DashboardStore {
	fetch := func(ctx context.Context, r model.DateRange) ([]model.DashboardStats, error) {
		stats, err := api.DashboardStats(ctx, r)
		if err != nil {
			return nil, err
		}
		return []model.DashboardStats{*stats}, nil
	}
	return &DashboardStore{NewRemoteStore[model.DashboardStats, model.DateRange]("dashboard", "Failed to load dashboard statistics", fetch, log)}
}

// Stats returns the loaded statistics, or zero values after a failure.
func (s *DashboardStore) Stats() model.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.items) == 0 {
		return model.DashboardStats{}
	}
	return s.items[0]
}
