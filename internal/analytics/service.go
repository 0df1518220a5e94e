// Package analytics is the click/view aggregation and reporting engine.
//
// Tracking writes are transactional: the raw event insert and the
// denormalized counter increment commit or fail as a pair. Aggregation
// reads are side-effect-free and degrade to zero-valued defaults on any
// query error so a broken analytics query never breaks the request path.
package analytics

import (
	"context"
	"time"

	"github.com/andreajoa/linktree/backend/internal/logger"
	"github.com/andreajoa/linktree/backend/internal/metrics"
	"github.com/andreajoa/linktree/backend/internal/models"
	"github.com/andreajoa/linktree/backend/internal/useragent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service runs tracking writes and aggregation reads against the event
// store. Construct once with the shared *gorm.DB handle.
type Service struct {
	db *gorm.DB
}

// NewService creates an analytics service backed by db.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// TrackLinkClick records one click: the raw event row and the link's
// denormalized counter advance in a single transaction, so
// links.clicks == COUNT(link_clicks) cannot drift on a partial failure.
func (s *Service) TrackLinkClick(ctx context.Context, linkID, ownerID string, meta ClickMetadata) error {
	ua := useragent.Classify(meta.UserAgent)

	click := models.LinkClick{
		LinkID:    linkID,
		UserID:    ownerID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
		Country:   meta.Country,
		Device:    ua.Device(),
		Browser:   ua.Browser(),
		OS:        ua.OS(),
		SessionID: meta.SessionID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&click).Error; err != nil {
			return err
		}
		return tx.Model(&models.Link{}).
			Where("id = ?", linkID).
			UpdateColumn("clicks", gorm.Expr("clicks + ?", 1)).Error
	})
	if err != nil {
		metrics.Get().ClicksTrackedTotal.WithLabelValues("error").Inc()
		logger.Error("Click tracking failed",
			logger.WithLinkID(linkID),
			zap.Error(err),
		)
		return err
	}

	metrics.Get().ClicksTrackedTotal.WithLabelValues("ok").Inc()
	logger.DebugWithFields("Link click tracked", logger.WithLinkID(linkID))
	return nil
}

// TrackPageView records one page view plus the page's views counter, in the
// same transactional pairing as TrackLinkClick.
func (s *Service) TrackPageView(ctx context.Context, pageID string, duration int, meta ClickMetadata) error {
	ua := useragent.Classify(meta.UserAgent)

	view := models.PageView{
		PageID:    pageID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
		Country:   meta.Country,
		City:      meta.City,
		Device:    ua.Device(),
		Browser:   ua.Browser(),
		OS:        ua.OS(),
		SessionID: meta.SessionID,
		Duration:  duration,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&view).Error; err != nil {
			return err
		}
		return tx.Model(&models.Page{}).
			Where("id = ?", pageID).
			UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	})
	if err != nil {
		metrics.Get().PageViewsTrackedTotal.WithLabelValues("error").Inc()
		logger.Error("Page view tracking failed",
			logger.WithPageID(pageID),
			zap.Error(err),
		)
		return err
	}

	metrics.Get().PageViewsTrackedTotal.WithLabelValues("ok").Inc()
	return nil
}

// TrackBlockClick records one block interaction for funnel and heatmap
// aggregations. Block clicks carry no denormalized counter.
func (s *Service) TrackBlockClick(ctx context.Context, pageID, blockID string, meta ClickMetadata) error {
	click := models.BlockClick{
		PageID:    pageID,
		BlockID:   blockID,
		IP:        meta.IP,
		SessionID: meta.SessionID,
	}

	if err := s.db.WithContext(ctx).Create(&click).Error; err != nil {
		logger.Error("Block click tracking failed",
			logger.WithPageID(pageID),
			zap.String("block_id", blockID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// observe times an aggregation and logs its degraded-default fallback when
// err is non-nil. Aggregations never propagate store errors to callers.
func observe(name string, start time.Time, err error) {
	metrics.Get().AggregationDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Get().AggregationErrors.WithLabelValues(name).Inc()
		logger.Error("Aggregation degraded to defaults",
			zap.String("aggregation", name),
			zap.Error(err),
		)
	}
}
