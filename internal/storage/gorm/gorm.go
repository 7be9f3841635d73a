// Package gorm stores the scan statistics through gorm, on Postgres or SQLite.
package gorm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GormazAR/overlay/internal/database"
	"github.com/GormazAR/overlay/internal/model"
)

// Backend runs every operation in a single transaction on the manager's DB.
type Backend struct {
	dbm     *database.Manager
	db      *gorm.DB
	catalog []model.Graffiti
}

// New creates a backend on an already connected manager.
func New(dbm *database.Manager, catalog []model.Graffiti) *Backend {
	return &Backend{dbm: dbm, db: dbm.DB, catalog: catalog}
}

// Init migrates the schema and seeds the catalog and the stats row.
func (b *Backend) Init() error {
	if err := b.dbm.Setup(); err != nil {
		return err
	}
	return b.db.Transaction(func(tx *gorm.DB) error {
		for _, g := range b.catalog {
			seed := model.Graffiti{DocID: g.DocID, Name: g.Name}
			if err := tx.Where(model.Graffiti{DocID: g.DocID}).FirstOrCreate(&seed).Error; err != nil {
				return fmt.Errorf("seed graffiti %s: %w", g.DocID, err)
			}
		}
		stats := model.GlobalStats{ID: model.GlobalStatsID}
		if err := tx.FirstOrCreate(&stats, model.GlobalStats{ID: model.GlobalStatsID}).Error; err != nil {
			return fmt.Errorf("seed stats: %w", err)
		}
		return nil
	})
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.dbm.Close()
}

// Snapshot writes a copy of a SQLite database to path.
func (b *Backend) Snapshot(path string) error {
	return b.dbm.DumpToDisk(path)
}

func (b *Backend) lockStats(tx *gorm.DB) *gorm.DB {
	// SQLite serializes writers on its own
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func statsRow(tx *gorm.DB) *gorm.DB {
	return tx.Model(&model.GlobalStats{}).Where("id = ?", model.GlobalStatsID)
}

// RegisterUser adds userID to the known users.
func (b *Backend) RegisterUser(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, model.ErrMissingUserID
	}

	var created bool
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := model.User{UserID: userID, Scanned: []string{}}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&user)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return statsRow(tx).UpdateColumn("unique_users", gorm.Expr("unique_users + ?", 1)).Error
	})
	return created, err
}

// IncrementScan counts one scan of docID by userID. Unknown documents and
// users are rejected before any counter moves.
func (b *Backend) IncrementScan(ctx context.Context, docID, userID string) (model.ScanResult, error) {
	if userID == "" {
		return model.ScanResult{}, model.ErrMissingUserID
	}

	var result model.ScanResult
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc model.Graffiti
		if err := tx.Where("doc_id = ?", docID).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrDocumentNotFound
			}
			return err
		}
		var user model.User
		if err := tx.Where("user_id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrUserNotFound
			}
			return err
		}

		if err := tx.Model(&doc).UpdateColumn("scans", gorm.Expr("scans + ?", 1)).Error; err != nil {
			return err
		}
		if err := tx.First(&doc, doc.ID).Error; err != nil {
			return err
		}

		if user.AddScan(docID) {
			var ids []string
			if err := tx.Model(&model.Graffiti{}).Order("id").Pluck("doc_id", &ids).Error; err != nil {
				return err
			}
			completed := user.MarkCompletedIfDone(ids)
			if err := tx.Model(&user).Updates(map[string]any{
				"scanned":   user.Scanned,
				"completed": user.Completed,
			}).Error; err != nil {
				return err
			}
			if completed {
				if err := statsRow(tx).UpdateColumn("users_completed", gorm.Expr("users_completed + ?", 1)).Error; err != nil {
					return err
				}
			}
		}

		result = model.ScanResult{
			Name:        doc.Name,
			Scans:       doc.Scans,
			UserScanned: []string(user.Scanned),
		}
		return nil
	})
	return result, err
}

// EndSession folds a session into the running average.
func (b *Backend) EndSession(ctx context.Context, _ string, seconds float64) (model.SessionResult, error) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return model.SessionResult{}, model.ErrInvalidDuration
	}

	var result model.SessionResult
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stats model.GlobalStats
		if err := b.lockStats(tx).First(&stats, "id = ?", model.GlobalStatsID).Error; err != nil {
			return err
		}
		stats.RecordSession(seconds)
		if err := statsRow(tx).Updates(map[string]any{
			"sessions_count":       stats.SessionsCount,
			"average_session_time": stats.AverageSessionTime,
		}).Error; err != nil {
			return err
		}
		result = model.SessionResult{
			SessionDuration:    seconds,
			AverageSessionTime: stats.AverageSessionTime,
		}
		return nil
	})
	return result, err
}

// Stats returns the counters and the catalog ordered by seed order.
func (b *Backend) Stats(ctx context.Context) (model.StatsResult, error) {
	var out model.StatsResult
	db := b.db.WithContext(ctx)
	if err := db.First(&out.GlobalStats, "id = ?", model.GlobalStatsID).Error; err != nil {
		return out, err
	}
	if err := db.Order("id").Find(&out.Graffiti).Error; err != nil {
		return out, err
	}
	return out, nil
}
