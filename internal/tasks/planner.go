package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"waitline/internal/log"
)

// Auditor проверяет непрерывность позиций во всех очередях.
type Auditor interface {
	AuditAll(ctx context.Context) (map[string]error, error)
}

// AuditQueues запускает проверку и логирует каждую найденную дыру.
// Возвращает число очередей с нарушениями.
func AuditQueues(ctx context.Context, a Auditor, logger *log.Logger) int {
	started := time.Now()
	failures, err := a.AuditAll(ctx)
	if err != nil {
		logger.Errorw("position audit failed", "error", err)
		return 0
	}
	for queueID, ferr := range failures {
		logger.Errorw("queue positions out of order", "queue_id", queueID, "error", ferr)
	}
	logger.Infow("position audit finished", "violations", len(failures), "took", time.Since(started))
	return len(failures)
}

// InitScheduler инициализирует планировщик cron-задач. Расписание в формате
// с секундами, например "0 */5 * * * *".
func InitScheduler(a Auditor, spec string, logger *log.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		AuditQueues(ctx, a, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule position audit %q: %w", spec, err)
	}

	c.Start()
	logger.Infow("cron scheduler started", "audit_schedule", spec)
	return c, nil
}
