package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/beaconaid/foundation-api/internal/models"
)

const foundationColumns = `id, name, slug, contact_email, contact_phone, country, active, created_at, updated_at`

// FoundationRepository provides database access for tenants.
type FoundationRepository struct {
	db *sqlx.DB
}

// NewFoundationRepository creates a new instance of FoundationRepository.
func NewFoundationRepository(db *sqlx.DB) *FoundationRepository {
	return &FoundationRepository{db: db}
}

// List returns all foundations ordered by name.
func (r *FoundationRepository) List(ctx context.Context) ([]models.Foundation, error) {
	query := fmt.Sprintf(`SELECT %s FROM foundations ORDER BY name ASC`, foundationColumns)
	var foundations []models.Foundation
	if err := r.db.SelectContext(ctx, &foundations, query); err != nil {
		return nil, fmt.Errorf("list foundations: %w", err)
	}
	return foundations, nil
}

// FindByID returns a foundation by identifier.
func (r *FoundationRepository) FindByID(ctx context.Context, id string) (*models.Foundation, error) {
	query := fmt.Sprintf(`SELECT %s FROM foundations WHERE id = $1 LIMIT 1`, foundationColumns)
	var foundation models.Foundation
	if err := r.db.GetContext(ctx, &foundation, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find foundation by id: %w", err)
	}
	return &foundation, nil
}

// FindBySlug returns a foundation by its URL slug.
func (r *FoundationRepository) FindBySlug(ctx context.Context, slug string) (*models.Foundation, error) {
	query := fmt.Sprintf(`SELECT %s FROM foundations WHERE slug = $1 LIMIT 1`, foundationColumns)
	var foundation models.Foundation
	if err := r.db.GetContext(ctx, &foundation, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find foundation by slug: %w", err)
	}
	return &foundation, nil
}

// Create inserts a new foundation.
func (r *FoundationRepository) Create(ctx context.Context, foundation *models.Foundation) error {
	if foundation.ID == "" {
		foundation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if foundation.CreatedAt.IsZero() {
		foundation.CreatedAt = now
	}
	foundation.UpdatedAt = now

	const query = `INSERT INTO foundations (id, name, slug, contact_email, contact_phone, country, active, created_at, updated_at) VALUES (:id, :name, :slug, :contact_email, :contact_phone, :country, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, foundation); err != nil {
		return fmt.Errorf("create foundation: %w", err)
	}
	return nil
}

// Update updates mutable fields of a foundation.
func (r *FoundationRepository) Update(ctx context.Context, foundation *models.Foundation) error {
	foundation.UpdatedAt = time.Now().UTC()
	const query = `UPDATE foundations SET name = :name, contact_email = :contact_email, contact_phone = :contact_phone, country = :country, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, foundation); err != nil {
		return fmt.Errorf("update foundation: %w", err)
	}
	return nil
}
