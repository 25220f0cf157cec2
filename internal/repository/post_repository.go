package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-publisher/internal/model"
)

type postRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPostRepository returns a PostRepository backed by a SQL database.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, now: time.Now}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	now := r.now()
	id := NewPostID(now)
	for {
		var cnt int64
		if err := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			break
		}
		id = NewPostID(now)
	}
	post.ID = id
	post.CreatedAt = now
	if post.Status == "" {
		post.Status = model.PostStatusGenerated
	}
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) Get(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) UpdateContent(ctx context.Context, id, content string) (*model.Post, error) {
	now := r.now()
	res := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ? AND status <> ?", id, model.PostStatusPublished).
		Updates(map[string]any{"content": content, "updated_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		p, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if p.IsPublished() {
			return nil, fmt.Errorf("%w: post %s", ErrAlreadyPublished, id)
		}
	}
	return r.Get(ctx, id)
}

func (r *postRepository) List(ctx context.Context) ([]*model.Post, error) {
	var res []*model.Post
	err := r.db.WithContext(ctx).Order("created_at, id").Find(&res).Error
	return res, err
}

func (r *postRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PublishedRecord{}).
			Where("published_at < ?", before).
			Pluck("post_id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&model.PublishedRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&model.Post{}).Error
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
