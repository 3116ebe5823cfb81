package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

//go:generate mockgen -source=checkpoint_store.go -destination=../mocks/checkpoint_store.go -package=mocks -mock_names=CheckpointStore=MockCheckpointStore

// CheckpointStore defines the interface for storing and retrieving processor checkpoints
type CheckpointStore interface {
	// Load returns the last successful version of the processor, nil when it never advanced
	Load(ctx context.Context, processor string) (*uint64, error)
	// Advance moves the checkpoint forward. It returns false when version is not past the stored one
	Advance(ctx context.Context, processor string, version uint64, timestamp time.Time) (bool, error)
}

type checkpointStore struct {
	db *gorm.DB
}

// NewCheckpointStore creates a new checkpoint store
func NewCheckpointStore(db *gorm.DB) CheckpointStore {
	return &checkpointStore{db: db}
}

// Load retrieves the last successful version of the processor
func (s *checkpointStore) Load(ctx context.Context, processor string) (*uint64, error) {
	var status schema.ProcessorStatus
	err := s.db.WithContext(ctx).Where("processor = ?", processor).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	version := uint64(status.LastSuccessVersion) //nolint:gosec,G115
	return &version, nil
}

// Advance stores the checkpoint unless the stored version is already at or past it
func (s *checkpointStore) Advance(ctx context.Context, processor string, version uint64, timestamp time.Time) (bool, error) {
	status := schema.ProcessorStatus{
		Processor:                processor,
		LastSuccessVersion:       int64(version), //nolint:gosec,G115
		LastTransactionTimestamp: &timestamp,
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "processor"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_success_version", "last_transaction_timestamp", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "processor_status.last_success_version < EXCLUDED.last_success_version"},
			}},
		}).
		Create(&status)
	if result.Error != nil {
		return false, fmt.Errorf("failed to advance checkpoint: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		logger.WarnCtx(ctx, "Checkpoint not advanced",
			zap.Error(domain.ErrCheckpointRegression),
			zap.String("processor", processor),
			zap.Uint64("version", version))
		return false, nil
	}

	return true, nil
}
