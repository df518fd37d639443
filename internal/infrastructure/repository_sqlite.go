package infrastructure

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/course-extract-go/internal/domain"
)

// SQLiteRunRepository implements domain.RunRepository using SQLite
type SQLiteRunRepository struct {
	db *gorm.DB
}

// NewSQLiteRunRepository creates a new SQLite repository
func NewSQLiteRunRepository(dbPath string) (*SQLiteRunRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows a single writer; the queue and the API share the handle
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.Run{}, &domain.RunItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteRunRepository{db: db}, nil
}

// Create creates a new run
func (r *SQLiteRunRepository) Create(run *domain.Run) error {
	return r.db.Create(run).Error
}

// Update updates an existing run
func (r *SQLiteRunRepository) Update(run *domain.Run) error {
	return r.db.Save(run).Error
}

// Delete deletes a run and its items
func (r *SQLiteRunRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&domain.RunItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Run{}, "id = ?", id).Error
	})
}

// FindByID finds a run by ID
func (r *SQLiteRunRepository) FindByID(id string) (*domain.Run, error) {
	var run domain.Run
	err := r.db.First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindPending finds queued runs, oldest first
func (r *SQLiteRunRepository) FindPending() ([]*domain.Run, error) {
	var runs []*domain.Run
	err := r.db.Where("status = ?", domain.StatusQueued).
		Order("created_at ASC").
		Find(&runs).Error
	return runs, err
}

// FindAll finds all runs with optional filters
func (r *SQLiteRunRepository) FindAll(filters map[string]interface{}) ([]*domain.Run, error) {
	var runs []*domain.Run
	query := r.db

	for key, value := range filters {
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	err := query.Order("created_at DESC").Find(&runs).Error
	return runs, err
}

// SaveItems replaces the recorded items of a run
func (r *SQLiteRunRepository) SaveItems(runID string, items []*domain.RunItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&domain.RunItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for _, item := range items {
			item.ID = 0
			item.RunID = runID
		}
		return tx.CreateInBatches(items, 100).Error
	})
}

// FindItems returns the recorded items of a run in insertion order
func (r *SQLiteRunRepository) FindItems(runID string) ([]*domain.RunItem, error) {
	var items []*domain.RunItem
	err := r.db.Where("run_id = ?", runID).Order("id ASC").Find(&items).Error
	return items, err
}

// ResetOrphanedProcessing re-queues runs that were processing when the
// previous process exited
func (r *SQLiteRunRepository) ResetOrphanedProcessing() (int64, error) {
	result := r.db.Model(&domain.Run{}).
		Where("status = ?", domain.StatusProcessing).
		Updates(map[string]interface{}{"status": domain.StatusQueued, "started_at": nil})
	return result.RowsAffected, result.Error
}

// GetStats returns run statistics
func (r *SQLiteRunRepository) GetStats() (*domain.RunStats, error) {
	stats := &domain.RunStats{}

	if err := r.db.Model(&domain.Run{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.RunStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.Run{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusQueued:
			stats.Queued = sc.Count
		case domain.StatusProcessing:
			stats.Processing = sc.Count
		case domain.StatusCompleted:
			stats.Completed = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		case domain.StatusCancelled:
			stats.Cancelled = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteRunRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
