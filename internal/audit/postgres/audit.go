package postgres

import (
	"context"

	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

// Repository appends to the audit journal. Entries are never updated.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, entry *audit.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) ListByResource(ctx context.Context, resourceType string, resourceID int64) ([]*audit.Entry, error) {
	var entries []*audit.Entry
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
