package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
)

// Service reads and writes CMS content blobs. Without a database it falls
// back to a JSON file on disk, read-only.
type Service struct {
	db       *gorm.DB
	filePath string
}

// NewService builds the settings service. db may be nil when no persistent
// store is configured; filePath then serves all reads.
func NewService(db *gorm.DB, filePath string) *Service {
	return &Service{db: db, filePath: filePath}
}

// Get returns the content blob stored under key, or nil when absent.
func (s *Service) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if key == "" {
		return nil, fmt.Errorf("settings key is required")
	}

	if s.db == nil {
		return s.getFromFile(key)
	}

	var setting models.SiteSetting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.getFromFile(key)
	}
	if err != nil {
		return nil, err
	}
	return setting.Value, nil
}

// Set upserts the content blob under key. Requires a database.
func (s *Service) Set(ctx context.Context, key string, value json.RawMessage) error {
	if key == "" {
		return fmt.Errorf("settings key is required")
	}
	if s.db == nil {
		return fmt.Errorf("no persistent store configured for settings writes")
	}
	if !json.Valid(value) {
		return fmt.Errorf("settings value must be valid JSON")
	}

	var existing models.SiteSetting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(&models.SiteSetting{
			ID:    uuid.New(),
			Key:   key,
			Value: value,
		}).Error
	}
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&models.SiteSetting{}).
		Where("key = ?", key).
		Update("value", value).Error
}

func (s *Service) getFromFile(key string) (json.RawMessage, error) {
	if s.filePath == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading content file: %w", err)
	}

	var content map[string]json.RawMessage
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("parsing content file: %w", err)
	}
	return content[key], nil
}
