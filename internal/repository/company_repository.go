package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/regops/dossier-flow-api/internal/models"
)

// CompanyRepository persists owning-organisation reference data.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository constructs the repository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = `id, name, address, email, phone, created_at, updated_at`

// Create inserts a new company.
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if company.CreatedAt.IsZero() {
		company.CreatedAt = now
	}
	company.UpdatedAt = now
	const query = `INSERT INTO companies (id, name, address, email, phone, created_at, updated_at)
	VALUES (:id, :name, :address, :email, :phone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

// GetByID fetches a company by identifier.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE id = $1`, companyColumns)
	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, err
	}
	return &company, nil
}

// List returns companies, optionally filtered by a name search.
func (r *CompanyRepository) List(ctx context.Context, search string) ([]models.Company, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 1)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM companies`, companyColumns))
	if search != "" {
		args = append(args, "%"+search+"%")
		builder.WriteString(" WHERE name ILIKE $1")
	}
	builder.WriteString(" ORDER BY name ASC")

	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}
