package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-publisher/internal/model"
)

type pageRepository struct {
	db     *gorm.DB
	sealer TokenSealer
}

// NewPageRepository returns a PageRepository that seals credentials with
// sealer before they reach the database. sealer may be nil.
func NewPageRepository(db *gorm.DB, sealer TokenSealer) PageRepository {
	if sealer == nil {
		sealer = PlainSealer
	}
	return &pageRepository{db: db, sealer: sealer}
}

func (r *pageRepository) Put(ctx context.Context, page *model.ConnectedPage) error {
	sealed, err := r.sealer.Seal(page.AccessToken)
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}
	row := *page
	row.AccessToken = sealed
	// reconnecting a page overwrites the previous connection
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (r *pageRepository) Get(ctx context.Context, id string) (*model.ConnectedPage, error) {
	var p model.ConnectedPage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := r.open(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pageRepository) List(ctx context.Context) ([]*model.ConnectedPage, error) {
	var res []*model.ConnectedPage
	if err := r.db.WithContext(ctx).Order("id").Find(&res).Error; err != nil {
		return nil, err
	}
	for _, p := range res {
		if err := r.open(p); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *pageRepository) open(p *model.ConnectedPage) error {
	token, err := r.sealer.Open(p.AccessToken)
	if err != nil {
		return fmt.Errorf("open credential for page %s: %w", p.ID, err)
	}
	p.AccessToken = token
	return nil
}
