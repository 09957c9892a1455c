package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/regops/dossier-flow-api/internal/dto"
	"github.com/regops/dossier-flow-api/internal/models"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
)

type companyStore interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id string) (*models.Company, error)
	List(ctx context.Context, search string) ([]models.Company, error)
}

// CompanyService manages applicant organisation reference data.
type CompanyService struct {
	companies companyStore
	logger    *zap.Logger
}

// NewCompanyService constructs the service.
func NewCompanyService(companies companyStore, logger *zap.Logger) *CompanyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{companies: companies, logger: logger}
}

// Create registers an applicant organisation.
func (s *CompanyService) Create(ctx context.Context, req dto.CreateCompanyRequest) (*models.Company, error) {
	company := &models.Company{
		Name:    req.Name,
		Address: req.Address,
		Email:   req.Email,
		Phone:   req.Phone,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create company")
	}
	return company, nil
}

// Get fetches an applicant organisation.
func (s *CompanyService) Get(ctx context.Context, id string) (*models.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err, "company not found")
	}
	return company, nil
}

// List returns companies, optionally filtered by name.
func (s *CompanyService) List(ctx context.Context, search string) ([]models.Company, error) {
	companies, err := s.companies.List(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list companies")
	}
	return companies, nil
}
