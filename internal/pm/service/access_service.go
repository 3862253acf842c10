package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Capability a named action a role may perform. All role checks go through
// the single policy table below instead of per-route role lists.
type Capability string

const (
	CapUserList       Capability = "user.list"
	CapProjectCreate  Capability = "project.create"
	CapProjectUpdate  Capability = "project.update"
	CapProjectAssign  Capability = "project.assign"
	CapVendorManage   Capability = "vendor.manage"
	CapPRCreate       Capability = "pr.create"
	CapPRApprove      Capability = "pr.approve"
	CapPOCreate       Capability = "po.create"
	CapPOSend         Capability = "po.send"
	CapPOConfirm      Capability = "po.confirm"
	CapPOCancel       Capability = "po.cancel"
	CapDeliveryRecord Capability = "delivery.record"
	CapRatingSubmit   Capability = "rating.submit"
	CapReportExport   Capability = "report.export"
)

// policy maps capability → non-management roles allowed to perform it.
// Management roles pass every check and are not listed.
var policy = map[Capability][]string{
	CapUserList:       {},
	CapProjectCreate:  {},
	CapProjectUpdate:  {entity.RoleProjectManager},
	CapProjectAssign:  {entity.RoleProjectManager},
	CapVendorManage:   {entity.RolePurchaseDirector, entity.RolePurchaseSpecialist},
	CapPRCreate:       {entity.RoleProjectManager, entity.RolePurchaseDirector, entity.RolePurchaseSpecialist, entity.RoleArchitect, entity.RoleFieldEngineer},
	CapPRApprove:      {entity.RolePurchaseDirector},
	CapPOCreate:       {entity.RolePurchaseDirector, entity.RolePurchaseSpecialist},
	CapPOSend:         {entity.RolePurchaseDirector, entity.RolePurchaseSpecialist},
	CapPOConfirm:      {entity.RolePurchaseDirector, entity.RolePurchaseSpecialist},
	CapPOCancel:       {entity.RolePurchaseDirector},
	CapDeliveryRecord: {entity.RoleProjectManager, entity.RolePurchaseDirector, entity.RolePurchaseSpecialist, entity.RoleFieldEngineer},
	CapRatingSubmit:   {entity.RoleProjectManager, entity.RolePurchaseDirector},
	CapReportExport:   {entity.RoleProjectManager, entity.RolePurchaseDirector, entity.RolePurchaseSpecialist},
}

const scopeCacheTTL = 5 * time.Minute

// AccessService resolves which projects a user may act on and answers
// capability checks. Resolution fails closed: any store failure yields an
// empty scope, never unrestricted access.
type AccessService struct {
	projectRepo *repository.ProjectRepository
	rdb         *redis.Client
	logger      *zap.Logger
}

func NewAccessService(projectRepo *repository.ProjectRepository, logger *zap.Logger) *AccessService {
	return &AccessService{projectRepo: projectRepo, logger: logger}
}

// SetCache enables the optional Redis scope cache
func (s *AccessService) SetCache(rdb *redis.Client) {
	s.rdb = rdb
}

// Can reports whether the role may perform the capability.
func (s *AccessService) Can(role string, capability Capability) bool {
	if entity.IsManagementRole(role) {
		return true
	}
	for _, r := range policy[capability] {
		if r == role {
			return true
		}
	}
	return false
}

// ListAccessibleProjects returns the project ids the user may read or act on.
// restrict=false means unrestricted visibility (management roles); callers must
// not filter by the returned ids in that case.
func (s *AccessService) ListAccessibleProjects(ctx context.Context, userID, role string) (ids []string, restrict bool) {
	if entity.IsManagementRole(role) {
		return nil, false
	}

	if cached, ok := s.cachedScope(ctx, userID); ok {
		return cached, true
	}

	switch {
	case entity.HasAssignedScope(role):
		assigned, err := s.projectRepo.FindActiveProjectIDsForUser(ctx, userID)
		if err != nil {
			s.logger.Warn("access scope lookup failed, failing closed",
				zap.String("user_id", userID), zap.Error(err))
			return []string{}, true
		}
		managed, err := s.projectRepo.FindManagedProjectIDs(ctx, userID)
		if err != nil {
			s.logger.Warn("access scope lookup failed, failing closed",
				zap.String("user_id", userID), zap.Error(err))
			return []string{}, true
		}
		ids = unionIDs(assigned, managed)

	case role == entity.RoleClient:
		client, err := s.projectRepo.FindClientByUserID(ctx, userID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("client scope lookup failed, failing closed",
					zap.String("user_id", userID), zap.Error(err))
			}
			return []string{}, true
		}
		ids, err = s.projectRepo.FindClientProjectIDs(ctx, client.ID)
		if err != nil {
			s.logger.Warn("client scope lookup failed, failing closed",
				zap.String("user_id", userID), zap.Error(err))
			return []string{}, true
		}

	default:
		return []string{}, true
	}

	s.storeScope(ctx, userID, ids)
	return ids, true
}

// CanAccessProject answers the point query for one project id.
func (s *AccessService) CanAccessProject(ctx context.Context, userID, role, projectID string) bool {
	if entity.IsManagementRole(role) {
		return true
	}
	ids, _ := s.ListAccessibleProjects(ctx, userID, role)
	for _, id := range ids {
		if id == projectID {
			return true
		}
	}
	return false
}

// InvalidateScope drops the cached scope after an assignment or project change.
func (s *AccessService) InvalidateScope(ctx context.Context, userID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, scopeCacheKey(userID)).Err(); err != nil {
		s.logger.Warn("failed to invalidate scope cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func scopeCacheKey(userID string) string {
	return fmt.Sprintf("formulapm:access:projects:%s", userID)
}

// cachedScope reads the cached scope; any cache failure is a miss.
func (s *AccessService) cachedScope(ctx context.Context, userID string) ([]string, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, scopeCacheKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("scope cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

// storeScope caches a successfully resolved scope. Failed resolutions are
// never cached so fail-closed results stay transient.
func (s *AccessService) storeScope(ctx context.Context, userID string, ids []string) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, scopeCacheKey(userID), raw, scopeCacheTTL).Err(); err != nil {
		s.logger.Debug("scope cache write failed", zap.Error(err))
	}
}

func unionIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
