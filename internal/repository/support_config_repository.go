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

const supportConfigColumns = `id, foundation_id, support_type, display_name, description, eligibility_rules, amount_config, required_documents, application_settings, performance_requirements, priority_weights, active, created_at, updated_at`

// SupportConfigRepository provides database access for per-foundation support
// configurations.
type SupportConfigRepository struct {
	db *sqlx.DB
}

// NewSupportConfigRepository creates a new instance of SupportConfigRepository.
func NewSupportConfigRepository(db *sqlx.DB) *SupportConfigRepository {
	return &SupportConfigRepository{db: db}
}

// ListByFoundation returns a foundation's configurations ordered by type.
func (r *SupportConfigRepository) ListByFoundation(ctx context.Context, foundationID string, includeInactive bool) ([]models.SupportConfiguration, error) {
	query := fmt.Sprintf(`SELECT %s FROM support_configurations WHERE foundation_id = $1`, supportConfigColumns)
	if !includeInactive {
		query += ` AND active = TRUE`
	}
	query += ` ORDER BY support_type ASC`

	var configs []models.SupportConfiguration
	if err := r.db.SelectContext(ctx, &configs, query, foundationID); err != nil {
		return nil, fmt.Errorf("list support configurations: %w", err)
	}
	return configs, nil
}

// FindByID returns a configuration by identifier.
func (r *SupportConfigRepository) FindByID(ctx context.Context, id string) (*models.SupportConfiguration, error) {
	query := fmt.Sprintf(`SELECT %s FROM support_configurations WHERE id = $1 LIMIT 1`, supportConfigColumns)
	var cfg models.SupportConfiguration
	if err := r.db.GetContext(ctx, &cfg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find support configuration by id: %w", err)
	}
	return &cfg, nil
}

// FindActiveByType returns the active configuration of one support type.
func (r *SupportConfigRepository) FindActiveByType(ctx context.Context, foundationID, supportType string) (*models.SupportConfiguration, error) {
	query := fmt.Sprintf(`SELECT %s FROM support_configurations WHERE foundation_id = $1 AND support_type = $2 AND active = TRUE LIMIT 1`, supportConfigColumns)
	var cfg models.SupportConfiguration
	if err := r.db.GetContext(ctx, &cfg, query, foundationID, supportType); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active support configuration: %w", err)
	}
	return &cfg, nil
}

// Create inserts a new configuration.
func (r *SupportConfigRepository) Create(ctx context.Context, cfg *models.SupportConfiguration) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	const query = `INSERT INTO support_configurations (id, foundation_id, support_type, display_name, description, eligibility_rules, amount_config, required_documents, application_settings, performance_requirements, priority_weights, active, created_at, updated_at) VALUES (:id, :foundation_id, :support_type, :display_name, :description, :eligibility_rules, :amount_config, :required_documents, :application_settings, :performance_requirements, :priority_weights, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("create support configuration: %w", err)
	}
	return nil
}

// Update replaces the configuration's mutable fields.
func (r *SupportConfigRepository) Update(ctx context.Context, cfg *models.SupportConfiguration) error {
	cfg.UpdatedAt = time.Now().UTC()
	const query = `UPDATE support_configurations SET display_name = :display_name, description = :description, eligibility_rules = :eligibility_rules, amount_config = :amount_config, required_documents = :required_documents, application_settings = :application_settings, performance_requirements = :performance_requirements, priority_weights = :priority_weights, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("update support configuration: %w", err)
	}
	return nil
}

// SetActive flips the configuration's active flag.
func (r *SupportConfigRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE support_configurations SET active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set support configuration active: %w", err)
	}
	return nil
}

// ReactivateAll reactivates every inactive configuration for a foundation and
// returns the number touched.
func (r *SupportConfigRepository) ReactivateAll(ctx context.Context, foundationID string) (int, error) {
	const query = `UPDATE support_configurations SET active = TRUE, updated_at = $2 WHERE foundation_id = $1 AND active = FALSE`
	res, err := r.db.ExecContext(ctx, query, foundationID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("reactivate support configurations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reactivate support configurations: %w", err)
	}
	return int(affected), nil
}
