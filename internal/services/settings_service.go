package services

import (
	"context"
	"time"

	"taskhub/internal/models"
	"taskhub/internal/repositories"

	"github.com/goccy/go-json"
)

const (
	SETTINGS_CACHE_KEY = "settings:current"
	SETTINGS_CACHE_TTL = 10 * time.Minute
)

// SettingsService reads platform settings through a cache and applies
// optimistic, version-checked updates.
type SettingsService struct {
	store repositories.Store
	cache repositories.KeyValue
}

func NewSettingsService(store repositories.Store, cache repositories.KeyValue) *SettingsService {
	return &SettingsService{
		store: store,
		cache: cache,
	}
}

func (s *SettingsService) cached(ctx context.Context) *models.PlatformSettings {
	if s.cache == nil {
		return nil
	}
	raw, ok, err := s.cache.Get(ctx, SETTINGS_CACHE_KEY)
	if err != nil || !ok {
		return nil
	}
	settings := &models.PlatformSettings{}
	if err := json.Unmarshal([]byte(raw), settings); err != nil {
		log.Warn("Dropping unreadable settings cache entry: ", err)
		_ = s.cache.Del(ctx, SETTINGS_CACHE_KEY)
		return nil
	}
	return settings
}

func (s *SettingsService) remember(ctx context.Context, settings *models.PlatformSettings) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(settings)
	if err != nil {
		log.Warn("Can't encode settings for cache: ", err)
		return
	}
	if err := s.cache.Set(ctx, SETTINGS_CACHE_KEY, string(data), SETTINGS_CACHE_TTL); err != nil {
		log.Warn("Can't cache settings: ", err)
	}
}

// Current returns the settings in force, from cache when possible.
func (s *SettingsService) Current(ctx context.Context) (*models.PlatformSettings, error) {
	if settings := s.cached(ctx); settings != nil {
		return settings, nil
	}
	var settings *models.PlatformSettings
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		settings, err = loadSettings(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.remember(ctx, settings)
	return settings, nil
}

func (s *SettingsService) Public(ctx context.Context) (*models.PublicSettings, error) {
	settings, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	public := settings.Public()
	return &public, nil
}

// Update replaces the settings when expectedVersion matches the stored version.
func (s *SettingsService) Update(ctx context.Context, expectedVersion int64, next models.PlatformSettings) (*models.PlatformSettings, error) {
	if err := next.Validate(); err != nil {
		return nil, observe("admin.update_settings", err)
	}
	saved := next.Clone()
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		current, err := loadSettings(tx)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return models.ErrSettingsConflict
		}
		saved.Version = current.Version + 1
		return tx.SaveSettings(saved)
	})
	if err != nil {
		return nil, observe("admin.update_settings", err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, SETTINGS_CACHE_KEY); err != nil {
			log.Warn("Can't invalidate settings cache: ", err)
		}
	}
	log.Infof("Platform settings updated to version %d", saved.Version)
	return saved, observe("admin.update_settings", nil)
}
