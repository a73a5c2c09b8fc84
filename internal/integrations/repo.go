package integrations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
)

// TokenRepository persists one OAuth credential set per provider.
type TokenRepository interface {
	GetByProvider(ctx context.Context, provider string) (*models.IntegrationToken, error)
	Upsert(ctx context.Context, token *models.IntegrationToken) error
}

// SyncLogRepository records integration runs.
type SyncLogRepository interface {
	Create(ctx context.Context, log *models.SyncLog) error
	ListRecent(ctx context.Context, provider string, limit int) ([]models.SyncLog, error)
	LatestByProvider(ctx context.Context, provider string) (*models.SyncLog, error)
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) GetByProvider(ctx context.Context, provider string) (*models.IntegrationToken, error) {
	var token models.IntegrationToken
	err := r.db.WithContext(ctx).Where("provider = ?", provider).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) Upsert(ctx context.Context, token *models.IntegrationToken) error {
	existing, err := r.GetByProvider(ctx, token.Provider)
	if err != nil {
		return err
	}
	if existing == nil {
		if token.ID == uuid.Nil {
			token.ID = uuid.New()
		}
		return r.db.WithContext(ctx).Create(token).Error
	}
	token.ID = existing.ID
	token.CreatedAt = existing.CreatedAt
	token.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(token).Error
}

type syncLogRepository struct {
	db *gorm.DB
}

func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepository{db: db}
}

func (r *syncLogRepository) Create(ctx context.Context, log *models.SyncLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *syncLogRepository) ListRecent(ctx context.Context, provider string, limit int) ([]models.SyncLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := r.db.WithContext(ctx).Model(&models.SyncLog{})
	if provider != "" {
		query = query.Where("provider = ?", provider)
	}
	var logs []models.SyncLog
	err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *syncLogRepository) LatestByProvider(ctx context.Context, provider string) (*models.SyncLog, error) {
	var log models.SyncLog
	err := r.db.WithContext(ctx).
		Where("provider = ?", provider).
		Order("created_at DESC").
		First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}
