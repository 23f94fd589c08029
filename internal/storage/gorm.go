package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"waitline/internal/models"
)

var _ Store = (*GormStore)(nil)

// GormStore keeps queues and entries in postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.Queue{}, &models.QueueEntry{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) CreateQueue(ctx context.Context, q *models.Queue) error {
	if err := s.db.WithContext(ctx).Create(q).Error; err != nil {
		return fmt.Errorf("create queue: %w", err)
	}
	return nil
}

func (s *GormStore) GetQueue(ctx context.Context, queueID string) (*models.Queue, error) {
	var q models.Queue
	if err := s.db.WithContext(ctx).First(&q, "id = ?", queueID).Error; err != nil {
		return nil, gormErr("get queue", err)
	}
	return &q, nil
}

func (s *GormStore) ListQueues(ctx context.Context, businessID string) ([]models.Queue, error) {
	var queues []models.Queue
	if err := s.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at ASC").
		Find(&queues).Error; err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	return queues, nil
}

func (s *GormStore) AllQueues(ctx context.Context) ([]models.Queue, error) {
	var queues []models.Queue
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&queues).Error; err != nil {
		return nil, fmt.Errorf("all queues: %w", err)
	}
	return queues, nil
}

func (s *GormStore) LatestEntry(ctx context.Context, queueID, userID string) (*models.QueueEntry, error) {
	return latestEntry(s.db.WithContext(ctx), queueID, userID)
}

func (s *GormStore) WaitingEntries(ctx context.Context, queueID string) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	if err := s.db.WithContext(ctx).
		Where("queue_id = ? AND status = ?", queueID, models.StatusWaiting).
		Order("position ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("waiting entries: %w", err)
	}
	return entries, nil
}

func (s *GormStore) UserEntries(ctx context.Context, userID string) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("user entries: %w", err)
	}
	return entries, nil
}

func (s *GormStore) CountByStatus(ctx context.Context, queueID string) (StatusCounts, error) {
	var rows []struct {
		Status models.Status
		N      int
	}
	if err := s.db.WithContext(ctx).
		Model(&models.QueueEntry{}).
		Select("status, COUNT(*) AS n").
		Where("queue_id = ?", queueID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	counts := make(StatusCounts, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

// WithinQueue locks the queue row for the length of the transaction, which
// serializes writers of the same queue across processes.
func (s *GormStore) WithinQueue(ctx context.Context, queueID string, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var q models.Queue
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, "id = ?", queueID).Error; err != nil {
			return gormErr("lock queue", err)
		}
		return fn(&gormTx{db: db, queueID: queueID})
	})
}

type gormTx struct {
	db      *gorm.DB
	queueID string
}

func (t *gormTx) LatestEntry(userID string) (*models.QueueEntry, error) {
	return latestEntry(t.db, t.queueID, userID)
}

func (t *gormTx) CountWaiting() (int, error) {
	var n int64
	if err := t.db.Model(&models.QueueEntry{}).
		Where("queue_id = ? AND status = ?", t.queueID, models.StatusWaiting).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count waiting: %w", err)
	}
	return int(n), nil
}

func (t *gormTx) WaitingAt(position int) (*models.QueueEntry, error) {
	var e models.QueueEntry
	if err := t.db.
		Where("queue_id = ? AND status = ? AND position = ?", t.queueID, models.StatusWaiting, position).
		First(&e).Error; err != nil {
		return nil, gormErr("waiting at", err)
	}
	return &e, nil
}

func (t *gormTx) InsertEntry(e *models.QueueEntry) error {
	if err := t.db.Create(e).Error; err != nil {
		return gormErr("insert entry", err)
	}
	return nil
}

func (t *gormTx) SetStatus(entryID string, from, to models.Status) error {
	res := t.db.Model(&models.QueueEntry{}).
		Where("id = ? AND queue_id = ? AND status = ?", entryID, t.queueID, from).
		UpdateColumn("status", to)
	if res.Error != nil {
		return fmt.Errorf("set status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// CloseGap is one UPDATE statement, so readers never see a half-shifted line.
func (t *gormTx) CloseGap(vacated int) (int, error) {
	if vacated < 1 {
		return 0, nil
	}
	occupied := t.db.Session(&gorm.Session{NewDB: true}).
		Model(&models.QueueEntry{}).
		Select("1").
		Where("queue_id = ? AND status = ? AND position = ?", t.queueID, models.StatusWaiting, vacated)

	res := t.db.Model(&models.QueueEntry{}).
		Where("queue_id = ? AND status = ? AND position > ?", t.queueID, models.StatusWaiting, vacated).
		Where("NOT EXISTS (?)", occupied).
		UpdateColumn("position", gorm.Expr("position - 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("close gap: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func latestEntry(db *gorm.DB, queueID, userID string) (*models.QueueEntry, error) {
	var e models.QueueEntry
	if err := db.
		Where("queue_id = ? AND user_id = ?", queueID, userID).
		Order("joined_at DESC, status DESC, id DESC").
		First(&e).Error; err != nil {
		return nil, gormErr("latest entry", err)
	}
	return &e, nil
}

func gormErr(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}
