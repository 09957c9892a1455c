package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/regops/dossier-flow-api/internal/dto"
	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/pkg/config"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
)

type inboxReader interface {
	DivisionInbox(ctx context.Context, division, point string) ([]models.InboxEntry, error)
	StaffInbox(ctx context.Context, staffID string) ([]models.InboxEntry, error)
}

type inboxCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// InboxService serves the pending-work projections with a short cache-aside
// layer. The cache TTL is short enough that a just-completed transition shows
// up within seconds; cache failures degrade to a direct query.
type InboxService struct {
	inbox  inboxReader
	sla    *SLAService
	cache  inboxCache
	cfg    config.InboxConfig
	logger *zap.Logger
}

// NewInboxService constructs the service. cache may be nil when Redis is not
// configured.
func NewInboxService(inbox inboxReader, sla *SLAService, cache inboxCache, cfg config.InboxConfig, logger *zap.Logger) *InboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InboxService{inbox: inbox, sla: sla, cache: cache, cfg: cfg, logger: logger}
}

// DivisionInbox lists pending work for a division at a workflow point.
func (s *InboxService) DivisionInbox(ctx context.Context, division, point string) ([]dto.InboxItem, error) {
	division = models.NormalizeDivision(division)
	if division == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "division is required")
	}
	if point == "" {
		point = models.PointDDD
	}
	key := fmt.Sprintf("inbox:division:%s:%s", division, point)
	return s.load(ctx, key, func(ctx context.Context) ([]models.InboxEntry, error) {
		return s.inbox.DivisionInbox(ctx, division, point)
	})
}

// StaffInbox lists a reviewer's open assignments.
func (s *InboxService) StaffInbox(ctx context.Context, staffID string) ([]dto.InboxItem, error) {
	if staffID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staff id is required")
	}
	key := "inbox:staff:" + staffID
	return s.load(ctx, key, func(ctx context.Context) ([]models.InboxEntry, error) {
		return s.inbox.StaffInbox(ctx, staffID)
	})
}

func (s *InboxService) load(ctx context.Context, key string, query func(ctx context.Context) ([]models.InboxEntry, error)) ([]dto.InboxItem, error) {
	if entries, ok := s.fromCache(ctx, key); ok {
		return s.decorate(entries), nil
	}
	entries, err := query(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to query inbox")
	}
	s.toCache(ctx, key, entries)
	return s.decorate(entries), nil
}

func (s *InboxService) decorate(entries []models.InboxEntry) []dto.InboxItem {
	items := make([]dto.InboxItem, 0, len(entries))
	for _, entry := range entries {
		item := dto.InboxItem{InboxEntry: entry}
		if s.sla != nil {
			item.SLA = s.sla.ClockFor(entry.SegmentID, entry.ApplicationID, entry.Division, entry.Point, entry.StaffID, entry.StartTime)
		}
		items = append(items, item)
	}
	return items
}

func (s *InboxService) fromCache(ctx context.Context, key string) ([]models.InboxEntry, bool) {
	if !s.cfg.CacheEnabled || s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("inbox cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var entries []models.InboxEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("inbox cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return entries, true
}

func (s *InboxService) toCache(ctx context.Context, key string, entries []models.InboxEntry) {
	if !s.cfg.CacheEnabled || s.cache == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL).Err(); err != nil {
		s.logger.Warn("inbox cache write failed", zap.String("key", key), zap.Error(err))
	}
}
