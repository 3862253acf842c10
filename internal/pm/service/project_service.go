package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
)

// ProjectService project CRUD and team assignments
type ProjectService struct {
	projectRepo *repository.ProjectRepository
	userRepo    *repository.UserRepository
	access      *AccessService
}

func NewProjectService(projectRepo *repository.ProjectRepository, userRepo *repository.UserRepository, access *AccessService) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, userRepo: userRepo, access: access}
}

// ListProjects lists projects within the caller's scope
func (s *ProjectService) ListProjects(ctx context.Context, page, pageSize int, filters map[string]string, accessibleIDs []string, restrict bool) ([]entity.Project, int64, error) {
	return s.projectRepo.FindAll(ctx, page, pageSize, filters, accessibleIDs, restrict)
}

// GetProject fetches one project
func (s *ProjectService) GetProject(ctx context.Context, id string) (*entity.Project, error) {
	return s.projectRepo.FindByID(ctx, id)
}

// CreateProjectRequest new project payload
type CreateProjectRequest struct {
	Name             string     `json:"name" binding:"required,max=200"`
	Description      string     `json:"description" binding:"max=5000"`
	ClientID         *string    `json:"client_id"`
	ProjectManagerID *string    `json:"project_manager_id"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Budget           *float64   `json:"budget"`
}

// CreateProject creates a project in planning status
func (s *ProjectService) CreateProject(ctx context.Context, userID string, req *CreateProjectRequest) (*entity.Project, error) {
	code, err := s.projectRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate project code: %w", err)
	}

	project := &entity.Project{
		ID:               uuid.New().String(),
		Code:             code,
		Name:             req.Name,
		Description:      req.Description,
		Status:           entity.ProjectStatusPlanning,
		ClientID:         req.ClientID,
		ProjectManagerID: req.ProjectManagerID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Budget:           req.Budget,
		CreatedBy:        userID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	if req.ProjectManagerID != nil {
		s.access.InvalidateScope(ctx, *req.ProjectManagerID)
	}
	return project, nil
}

// UpdateProjectRequest partial update payload
type UpdateProjectRequest struct {
	Name             *string    `json:"name" binding:"omitempty,max=200"`
	Description      *string    `json:"description" binding:"omitempty,max=5000"`
	Status           *string    `json:"status" binding:"omitempty,oneof=planning active on_hold completed cancelled"`
	ClientID         *string    `json:"client_id"`
	ProjectManagerID *string    `json:"project_manager_id"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Budget           *float64   `json:"budget"`
}

// UpdateProject applies the provided fields to a project
func (s *ProjectService) UpdateProject(ctx context.Context, id string, req *UpdateProjectRequest) (*entity.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousManager := project.ProjectManagerID
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.ClientID != nil {
		project.ClientID = req.ClientID
	}
	if req.ProjectManagerID != nil {
		project.ProjectManagerID = req.ProjectManagerID
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}
	if req.Budget != nil {
		project.Budget = req.Budget
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	if req.ProjectManagerID != nil {
		s.access.InvalidateScope(ctx, *req.ProjectManagerID)
		if previousManager != nil && *previousManager != *req.ProjectManagerID {
			s.access.InvalidateScope(ctx, *previousManager)
		}
	}
	return project, nil
}

// AssignUserRequest team membership payload
type AssignUserRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// AssignUser grants a user visibility into a project. Re-assigning a removed
// user reactivates the existing row.
func (s *ProjectService) AssignUser(ctx context.Context, projectID, assignerID string, req *AssignUserRequest) (*entity.ProjectAssignment, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if entity.IsManagementRole(user.Role) {
		return nil, NewBusinessRuleError("user %s has company-wide visibility and cannot be assigned to a project", user.Name)
	}

	assignment, err := s.projectRepo.FindAssignment(ctx, projectID, req.UserID)
	switch {
	case err == nil:
		assignment.IsActive = true
		assignment.AssignedBy = assignerID
	case errors.Is(err, repository.ErrNotFound):
		assignment = &entity.ProjectAssignment{
			ID:         uuid.New().String(),
			ProjectID:  projectID,
			UserID:     req.UserID,
			IsActive:   true,
			AssignedBy: assignerID,
		}
	default:
		return nil, err
	}

	if err := s.projectRepo.SaveAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	s.access.InvalidateScope(ctx, req.UserID)
	return assignment, nil
}

// RemoveUser deactivates a project assignment
func (s *ProjectService) RemoveUser(ctx context.Context, projectID, userID string) error {
	assignment, err := s.projectRepo.FindAssignment(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !assignment.IsActive {
		return nil
	}
	assignment.IsActive = false
	if err := s.projectRepo.SaveAssignment(ctx, assignment); err != nil {
		return err
	}
	s.access.InvalidateScope(ctx, userID)
	return nil
}

// ListAssignments lists active team members of a project
func (s *ProjectService) ListAssignments(ctx context.Context, projectID string) ([]entity.ProjectAssignment, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.projectRepo.FindAssignmentsByProject(ctx, projectID, true)
}
