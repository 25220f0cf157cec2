package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-publisher/internal/model"
)

type ledgerRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLedgerRepository returns a LedgerRepository sharing the posts database.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db, now: time.Now}
}

// Record flips the post status and inserts the record in one transaction.
func (r *ledgerRepository) Record(ctx context.Context, rec *model.PublishedRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Post{}).
			Where("id = ? AND status <> ?", rec.PostID, model.PostStatusPublished).
			Updates(map[string]any{"status": model.PostStatusPublished, "updated_at": r.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cnt int64
			if err := tx.Model(&model.Post{}).Where("id = ?", rec.PostID).Count(&cnt).Error; err != nil {
				return err
			}
			if cnt == 0 {
				return fmt.Errorf("%w: post %s", ErrNotFound, rec.PostID)
			}
			return fmt.Errorf("%w: post %s", ErrAlreadyPublished, rec.PostID)
		}
		return tx.Create(rec).Error
	})
}

func (r *ledgerRepository) GetRecord(ctx context.Context, postID string) (*model.PublishedRecord, error) {
	var rec model.PublishedRecord
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: record %s", ErrNotFound, postID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *ledgerRepository) ListRecords(ctx context.Context) ([]*model.PublishedRecord, error) {
	var res []*model.PublishedRecord
	err := r.db.WithContext(ctx).Order("published_at").Find(&res).Error
	return res, err
}

// InitSchema creates the tables used by the SQL repositories.
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Post{}, &model.PublishedRecord{}, &model.ConnectedPage{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
