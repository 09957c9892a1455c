package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/pkg/config"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
	"github.com/regops/dossier-flow-api/pkg/letter"
	"github.com/regops/dossier-flow-api/pkg/storage"
)

type certificateStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type companyReader interface {
	GetByID(ctx context.Context, id string) (*models.Company, error)
}

// CertificateService renders, archives and serves clearance certificates. It
// implements CertificateIssuer for the workflow engine.
type CertificateService struct {
	renderer  *letter.ClearanceRenderer
	files     certificateStore
	companies companyReader
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	now       func() time.Time
}

// NewCertificateService constructs the service.
func NewCertificateService(renderer *letter.ClearanceRenderer, files certificateStore, companies companyReader, cfg config.CertificatesConfig, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		renderer:  renderer,
		files:     files,
		companies: companies,
		signer:    storage.NewSignedURLSigner(cfg.SignedURLSecret, cfg.SignedURLTTL),
		logger:    logger,
		now:       time.Now,
	}
}

// Issue renders the certificate for a cleared dossier and archives it,
// returning the stored path. Called inside the clearance transaction so a
// failed render aborts the transition.
func (s *CertificateService) Issue(ctx context.Context, app *models.Application, remarks string, actor models.Identity) (string, error) {
	data := letter.ClearanceData{
		ApplicationNumber: app.ApplicationNumber,
		ApplicationType:   app.Type,
		FacilityName:      app.Details.Inputs.FacilityName,
		FacilityAddress:   app.Details.Inputs.FacilityAddress,
		Divisions:         app.Details.AssignedDivisions,
		Remarks:           remarks,
		IssuedBy:          actor.Name,
		IssuedAt:          s.now().UTC(),
	}
	if app.CompanyID != nil && s.companies != nil {
		company, err := s.companies.GetByID(ctx, *app.CompanyID)
		switch {
		case err == nil:
			data.CompanyName = company.Name
		case errors.Is(err, sql.ErrNoRows):
			// render without an applicant line
		default:
			return "", fmt.Errorf("resolve company: %w", err)
		}
	}

	document, err := s.renderer.Render(data)
	if err != nil {
		return "", fmt.Errorf("render certificate: %w", err)
	}
	filename := certificateFilename(app.ApplicationNumber)
	path, err := s.files.Save(filename, document)
	if err != nil {
		return "", fmt.Errorf("archive certificate: %w", err)
	}
	s.logger.Info("clearance certificate archived",
		zap.String("application_number", app.ApplicationNumber),
		zap.String("path", path),
	)
	return path, nil
}

// DownloadURL issues a signed download token for an archived certificate.
func (s *CertificateService) DownloadURL(app *models.Application) (string, time.Time, error) {
	if app.Details.ArchivedPath == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "no certificate archived for this application")
	}
	token, expiresAt, err := s.signer.Generate(fmt.Sprintf("app-%d", app.ID), app.Details.ArchivedPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return token, expiresAt, nil
}

// OpenByToken validates a signed token and opens the archived document.
func (s *CertificateService) OpenByToken(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificate file missing")
	}
	return file, relPath, nil
}

// certificateFilename derives a stable archive name from the application
// number, replacing path-hostile characters.
func certificateFilename(number string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, number)
	return sanitized + ".pdf"
}
