package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"gorm.io/gorm"
)

// ProjectRepository projects, assignments and client records
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindAll lists projects, optionally restricted to a set of accessible ids
func (r *ProjectRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string, accessibleIDs []string, restrict bool) ([]entity.Project, int64, error) {
	var items []entity.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Project{})

	if restrict {
		if len(accessibleIDs) == 0 {
			return []entity.Project{}, 0, nil
		}
		query = query.Where("id IN ?", accessibleIDs)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if search := filters["search"]; search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(code) LIKE LOWER(?)", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Client").
		Preload("ProjectManager").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID looks up a project by id
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.Project, error) {
	var project entity.Project
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("ProjectManager").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// Create inserts a project
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// Update saves a project
func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

// CountByStatus counts projects in a status within the given scope
func (r *ProjectRepository) CountByStatus(ctx context.Context, status string, accessibleIDs []string, restrict bool) (int64, error) {
	if restrict && len(accessibleIDs) == 0 {
		return 0, nil
	}
	query := r.db.WithContext(ctx).
		Model(&entity.Project{}).
		Where("status = ?", status)
	if restrict {
		query = query.Where("id IN ?", accessibleIDs)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// GenerateCode generates the next project code PRJ-{year}-{seq}
func (r *ProjectRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("PRJ-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.Project{}).
		Select("COALESCE(MAX(code), '')").
		Where("code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "PRJ-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("PRJ-%s-%04d", year, seq), nil
}

// === Assignments ===

// FindActiveProjectIDsForUser returns project ids with an active assignment for the user
func (r *ProjectRepository) FindActiveProjectIDsForUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.ProjectAssignment{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("project_id", &ids).Error
	return ids, err
}

// FindManagedProjectIDs returns project ids where the user is the designated project manager
func (r *ProjectRepository) FindManagedProjectIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.Project{}).
		Where("project_manager_id = ?", userID).
		Pluck("id", &ids).Error
	return ids, err
}

// FindAssignment looks up the assignment row for (project, user), active or not
func (r *ProjectRepository) FindAssignment(ctx context.Context, projectID, userID string) (*entity.ProjectAssignment, error) {
	var assignment entity.ProjectAssignment
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// SaveAssignment inserts or updates an assignment row
func (r *ProjectRepository) SaveAssignment(ctx context.Context, assignment *entity.ProjectAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// FindAssignmentsByProject lists assignment rows for a project
func (r *ProjectRepository) FindAssignmentsByProject(ctx context.Context, projectID string, activeOnly bool) ([]entity.ProjectAssignment, error) {
	var items []entity.ProjectAssignment
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("created_at ASC").Find(&items).Error
	return items, err
}

// === Clients ===

// FindClientByUserID returns the client record owned by a login, if any
func (r *ProjectRepository) FindClientByUserID(ctx context.Context, userID string) (*entity.Client, error) {
	var client entity.Client
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// FindClientProjectIDs returns project ids visible to a client record
func (r *ProjectRepository) FindClientProjectIDs(ctx context.Context, clientID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.Project{}).
		Where("client_id = ?", clientID).
		Pluck("id", &ids).Error
	return ids, err
}

// CreateClient inserts a client record
func (r *ProjectRepository) CreateClient(ctx context.Context, client *entity.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}
