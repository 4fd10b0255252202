package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
)

// DialogRepository persists multi-step dialog sessions in Redis.
type DialogRepository struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewDialogRepository constructs a dialog store.
func NewDialogRepository(client *redis.Client, logger *zap.Logger, ttl time.Duration) *DialogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DialogRepository{client: client, logger: logger, ttl: ttl}
}

// NicheSessionKey is the Redis key for a niche edit session.
func NicheSessionKey(userID, surveyID string) string {
	return fmt.Sprintf("dialog:niche:%s:%s", userID, surveyID)
}

// GetNicheSession loads a session or returns ErrCacheMiss.
func (r *DialogRepository) GetNicheSession(ctx context.Context, userID, surveyID string) (*models.NicheEditSession, error) {
	key := NicheSessionKey(userID, surveyID)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var session models.NicheEditSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", key, err)
	}
	return &session, nil
}

// SaveNicheSession stores a session and refreshes its TTL.
func (r *DialogRepository) SaveNicheSession(ctx context.Context, session *models.NicheEditSession) error {
	key := NicheSessionKey(session.UserID, session.SurveyID)
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteNicheSession removes a session.
func (r *DialogRepository) DeleteNicheSession(ctx context.Context, userID, surveyID string) error {
	key := NicheSessionKey(userID, surveyID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}
