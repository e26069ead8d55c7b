package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/employeevirtual/backend/internal/metrics"
	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/pkg/logger"
)

// StatsCache is the slice of the Redis client the dashboard needs. A nil
// cache disables caching entirely.
type StatsCache interface {
	GetUserStats(ctx context.Context, userID string, stats interface{}) (bool, error)
	SetUserStats(ctx context.Context, userID string, stats interface{}, ttl time.Duration) error
}

type Service struct {
	store *database.Client
	cache StatsCache
	ttl   time.Duration
}

func NewService(store *database.Client, cache StatsCache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{store: store, cache: cache, ttl: ttl}
}

// Stats returns the caller's dashboard counts. Results are cached with a
// short TTL; cache failures fall through to the database and are logged
// rather than surfaced.
func (s *Service) Stats(ctx context.Context, userID string) (*database.UserStats, error) {
	if s.cache != nil {
		var cached database.UserStats
		hit, err := s.cache.GetUserStats(ctx, userID, &cached)
		if err != nil {
			logger.Warn("Stats cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if hit {
			metrics.StatsCacheHits.WithLabelValues("hit").Inc()
			return &cached, nil
		} else {
			metrics.StatsCacheHits.WithLabelValues("miss").Inc()
		}
	}

	stats, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetUserStats(ctx, userID, stats, s.ttl); err != nil {
			logger.Warn("Stats cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return stats, nil
}
