package employee

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/benefit-management/internal"
	employeeDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/benefit-management/internal/hrdirectory"
)

// Repository defines the data access methods for the local employee mirror.
// GetByID returns (nil, nil) when no row exists.
type Repository interface {
	GetByID(ctx context.Context, id string) (*employeeDatamodel.Employee, error)
	Upsert(ctx context.Context, employee *employeeDatamodel.Employee) error
}

// DirectoryAPI resolves profiles from the HR directory.
type DirectoryAPI interface {
	GetEmployee(ctx context.Context, employeeID string) (*hrdirectory.Profile, error)
}

type Service struct {
	repo      Repository
	directory DirectoryAPI
	logger    *slog.Logger
}

func NewService(repo Repository, directory DirectoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		logger:    logger,
	}
}

// GetProfile returns the local mirror, refreshing it from the directory
// when no row exists yet.
func (s *Service) GetProfile(ctx context.Context, employeeID string) (*Employee, error) {
	row, err := s.repo.GetByID(ctx, employeeID)
	if err != nil {
		s.logger.Error("failed to get employee", "error", err, "employee_id", employeeID)
		return nil, errors.NewInternalError("failed to get employee", err)
	}
	if row != nil {
		return FromDataModel(row), nil
	}

	return s.Refresh(ctx, employeeID)
}

// Refresh pulls the profile from the HR directory and upserts the mirror.
func (s *Service) Refresh(ctx context.Context, employeeID string) (*Employee, error) {
	profile, err := s.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	emp := &Employee{
		ID:        profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		Team:      profile.Team,
		Position:  profile.Position,
		StartDate: profile.StartDate,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Upsert(ctx, ToDataModel(emp)); err != nil {
		s.logger.Error("failed to upsert employee", "error", err, "employee_id", employeeID)
		return nil, errors.NewInternalError("failed to upsert employee", err)
	}

	s.logger.Info("employee profile refreshed", "employee_id", employeeID, "team", emp.Team)
	return emp, nil
}
