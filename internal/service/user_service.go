package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/regops/dossier-flow-api/internal/dto"
	"github.com/regops/dossier-flow-api/internal/models"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
)

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
}

type staffPerformanceReader interface {
	StaffPerformance(ctx context.Context, staffID string) (*models.StaffPerformance, error)
}

// UserService manages reviewer accounts and their performance view.
type UserService struct {
	users    userStore
	segments staffPerformanceReader
	logger   *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users userStore, segments staffPerformanceReader, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, segments: segments, logger: logger}
}

// Create registers a reviewer account.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*models.User, error) {
	role := models.UserRole(strings.ToUpper(req.Role))
	switch role {
	case models.RoleLOD, models.RoleStaff, models.RoleDDD, models.RoleDirector:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be LOD, STAFF, DDD or DIRECTOR")
	}
	division := models.NormalizeDivision(req.Division)
	if (role == models.RoleStaff || role == models.RoleDDD) && division == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "division is required for staff and deputy director accounts")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to check account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         role,
		Division:     division,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create account")
	}
	s.logger.Info("reviewer account created",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("division", user.Division),
	)
	return user, nil
}

// Get fetches a reviewer account.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err, "user not found")
	}
	return user, nil
}

// List returns reviewer accounts matching the filter.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list users")
	}
	return users, nil
}

// Performance returns a reviewer's closed-segment aggregate with the derived
// total and average durations filled in.
func (s *UserService) Performance(ctx context.Context, staffID string) (*models.StaffPerformance, error) {
	perf, err := s.segments.StaffPerformance(ctx, staffID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// no closed work yet; report zeroes rather than 404
			return &models.StaffPerformance{StaffID: staffID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to aggregate performance")
	}
	perf.TotalTime = time.Duration(perf.TotalSeconds * float64(time.Second))
	if perf.ClosedSegments > 0 {
		perf.AverageTime = perf.TotalTime / time.Duration(perf.ClosedSegments)
	}
	return perf, nil
}
