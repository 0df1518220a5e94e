package analytics

import (
	"context"
	"time"

	"github.com/andreajoa/linktree/backend/internal/logger"
	"github.com/andreajoa/linktree/backend/internal/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reconciler periodically recomputes the denormalized click and view
// counters from the raw event tables. The tracking path keeps them in sync
// transactionally; this job is the backstop that corrects any drift (manual
// data surgery, restored backups) and reports corrections so drift is
// visible instead of silent.
type Reconciler struct {
	db   *gorm.DB
	cron *cron.Cron
}

// NewReconciler creates a reconciler over the shared database handle.
func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{
		db:   db,
		cron: cron.New(),
	}
}

// Start schedules the reconciliation job. spec is a cron expression or a
// descriptor like "@hourly".
func (r *Reconciler) Start(spec string) error {
	_, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		r.Run(ctx)
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	logger.Log.Info("Counter reconciliation scheduled", zap.String("spec", spec))
	return nil
}

// Stop halts the schedule, waiting for a running job to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}

// Run reconciles both counter tables once. Safe to call directly.
func (r *Reconciler) Run(ctx context.Context) {
	r.reconcile(ctx, "links", "clicks", "link_clicks", "link_id")
	r.reconcile(ctx, "pages", "views", "page_views", "page_id")
}

// reconcile rewrites one denormalized counter column from its raw event
// table wherever the two disagree.
func (r *Reconciler) reconcile(ctx context.Context, table, column, eventTable, fkColumn string) {
	type drift struct {
		ID     string
		Stored int64
		Actual int64
	}

	var drifted []drift
	err := r.db.WithContext(ctx).Raw(
		"SELECT t.id AS id, t."+column+" AS stored, COALESCE(e.actual, 0) AS actual "+
			"FROM "+table+" t "+
			"LEFT JOIN (SELECT "+fkColumn+" AS fk, COUNT(*) AS actual FROM "+eventTable+" GROUP BY "+fkColumn+") e "+
			"ON e.fk = t.id "+
			"WHERE t."+column+" <> COALESCE(e.actual, 0)",
	).Scan(&drifted).Error
	if err != nil {
		logger.Error("Counter reconciliation query failed",
			zap.String("table", table),
			zap.Error(err),
		)
		return
	}

	for _, d := range drifted {
		err := r.db.WithContext(ctx).Table(table).
			Where("id = ?", d.ID).
			UpdateColumn(column, d.Actual).Error
		if err != nil {
			logger.Error("Counter correction failed",
				zap.String("table", table),
				zap.String("id", d.ID),
				zap.Error(err),
			)
			continue
		}
		metrics.Get().CounterCorrectionsTotal.WithLabelValues(table).Inc()
		logger.Warn("Corrected drifted counter",
			zap.String("table", table),
			zap.String("id", d.ID),
			zap.Int64("stored", d.Stored),
			zap.Int64("actual", d.Actual),
		)
	}
}
