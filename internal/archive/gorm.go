// Package archive keeps finished days in Postgres for period reporting.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/pkg/platform"
)

var ErrNotStarted = errors.New("archive not started")

type GormArchive struct {
	dsn    string
	db     *gorm.DB
	logger platform.Logger
}

func NewGormArchive(dsn string, logger platform.Logger) *GormArchive {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	return &GormArchive{dsn: dsn, logger: logger}
}

// Start opens the connection and migrates the archive tables.
func (a *GormArchive) Start(ctx context.Context) error {
	if a.dsn == "" {
		return errors.New("db.postgres.url is not set")
	}

	db, err := gorm.Open(postgres.Open(a.dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("cannot open archive database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&OrderRecord{}, &OrderLineRecord{}); err != nil {
		return fmt.Errorf("cannot migrate archive: %w", err)
	}

	a.db = db
	a.logger.Info("archive ready", "tables", "archived_orders,archived_order_lines")
	return nil
}

func (a *GormArchive) Stop(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	a.db = nil
	return sqlDB.Close()
}

// ArchiveDay upserts every order of d by id. Archiving the same day twice
// replaces its rows.
func (a *GormArchive) ArchiveDay(ctx context.Context, d *ledger.DailyData) error {
	if a.db == nil {
		return ErrNotStarted
	}
	if d == nil || len(d.CompletedOrders) == 0 {
		return nil
	}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range d.CompletedOrders {
			rec := toRecord(d.Date, o)
			lines := rec.Lines
			rec.Lines = nil

			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
				return fmt.Errorf("cannot archive order %s: %w", o.ID, err)
			}
			if err := tx.Where("order_id = ?", o.ID).Delete(&OrderLineRecord{}).Error; err != nil {
				return err
			}
			if len(lines) > 0 {
				if err := tx.Create(&lines).Error; err != nil {
					return fmt.Errorf("cannot archive lines of %s: %w", o.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.logger.Info("day archived", "date", d.Date, "orders", len(d.CompletedOrders))
	return nil
}

// Orders returns archived orders with timestamps in [from, to), oldest first.
func (a *GormArchive) Orders(ctx context.Context, from, to time.Time) ([]ledger.Order, error) {
	if a.db == nil {
		return nil, ErrNotStarted
	}

	var recs []OrderRecord
	err := a.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("cannot query archive: %w", err)
	}

	orders := make([]ledger.Order, 0, len(recs))
	for _, r := range recs {
		orders = append(orders, r.toOrder())
	}
	return orders, nil
}
