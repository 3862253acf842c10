package service

import (
	"context"
	"testing"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"github.com/keramy/formulapmv2-sub007/internal/pm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAccessEnv(t *testing.T) (*AccessService, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewAccessService(repos.Project, zap.NewNop()), db
}

func TestListAccessibleProjects_ManagementIsUnrestricted(t *testing.T) {
	svc, db := newAccessEnv(t)
	admin := testutil.SeedUser(t, db, "Admin", entity.RoleAdmin)
	owner := testutil.SeedUser(t, db, "Owner", entity.RoleCompanyOwner)
	project := testutil.SeedProject(t, db, "Tower A")

	for _, user := range []*entity.User{admin, owner} {
		ids, restrict := svc.ListAccessibleProjects(context.Background(), user.ID, user.Role)
		assert.False(t, restrict)
		assert.Nil(t, ids)
		assert.True(t, svc.CanAccessProject(context.Background(), user.ID, user.Role, project.ID))
	}
}

func TestListAccessibleProjects_AssignedScopeIsUnionOfAssignmentsAndManaged(t *testing.T) {
	svc, db := newAccessEnv(t)
	pm := testutil.SeedUser(t, db, "PM", entity.RoleProjectManager)
	assigned := testutil.SeedProject(t, db, "Assigned")
	managed := testutil.SeedProject(t, db, "Managed")
	inactive := testutil.SeedProject(t, db, "Removed")
	other := testutil.SeedProject(t, db, "Other")

	testutil.SeedAssignment(t, db, assigned.ID, pm.ID, true)
	deactivated := testutil.SeedAssignment(t, db, inactive.ID, pm.ID, false)

	// the inactive flag must survive the insert as-is
	var stored entity.ProjectAssignment
	require.NoError(t, db.First(&stored, "id = ?", deactivated.ID).Error)
	assert.False(t, stored.IsActive)

	require.NoError(t, db.Model(&entity.Project{}).
		Where("id = ?", managed.ID).
		Update("project_manager_id", pm.ID).Error)

	ids, restrict := svc.ListAccessibleProjects(context.Background(), pm.ID, pm.Role)
	assert.True(t, restrict)
	assert.ElementsMatch(t, []string{assigned.ID, managed.ID}, ids)

	assert.True(t, svc.CanAccessProject(context.Background(), pm.ID, pm.Role, assigned.ID))
	assert.False(t, svc.CanAccessProject(context.Background(), pm.ID, pm.Role, inactive.ID))
	assert.False(t, svc.CanAccessProject(context.Background(), pm.ID, pm.Role, other.ID))
}

func TestListAccessibleProjects_ClientScope(t *testing.T) {
	svc, db := newAccessEnv(t)
	login := testutil.SeedUser(t, db, "Client Login", entity.RoleClient)
	client := testutil.SeedClient(t, db, login.ID, "Acme Corp")
	visible := testutil.SeedProject(t, db, "Client Project")
	hidden := testutil.SeedProject(t, db, "Internal Project")

	require.NoError(t, db.Model(&entity.Project{}).
		Where("id = ?", visible.ID).
		Update("client_id", client.ID).Error)

	ids, restrict := svc.ListAccessibleProjects(context.Background(), login.ID, login.Role)
	assert.True(t, restrict)
	assert.Equal(t, []string{visible.ID}, ids)
	assert.False(t, svc.CanAccessProject(context.Background(), login.ID, login.Role, hidden.ID))
}

func TestListAccessibleProjects_ClientWithoutRecordFailsClosed(t *testing.T) {
	svc, db := newAccessEnv(t)
	login := testutil.SeedUser(t, db, "Orphan Client", entity.RoleClient)
	project := testutil.SeedProject(t, db, "Tower A")

	ids, restrict := svc.ListAccessibleProjects(context.Background(), login.ID, login.Role)
	assert.True(t, restrict)
	assert.Empty(t, ids)
	assert.False(t, svc.CanAccessProject(context.Background(), login.ID, login.Role, project.ID))
}

func TestListAccessibleProjects_UnknownRoleFailsClosed(t *testing.T) {
	svc, db := newAccessEnv(t)
	project := testutil.SeedProject(t, db, "Tower A")

	ids, restrict := svc.ListAccessibleProjects(context.Background(), "nobody", "intern")
	assert.True(t, restrict)
	assert.Empty(t, ids)
	assert.False(t, svc.CanAccessProject(context.Background(), "nobody", "intern", project.ID))
}

func TestCan_CapabilityPolicy(t *testing.T) {
	svc, _ := newAccessEnv(t)

	// management passes every check
	assert.True(t, svc.Can(entity.RoleAdmin, CapPOCancel))
	assert.True(t, svc.Can(entity.RoleGeneralManager, CapUserList))

	// purchase roles
	assert.True(t, svc.Can(entity.RolePurchaseDirector, CapPRApprove))
	assert.False(t, svc.Can(entity.RolePurchaseSpecialist, CapPRApprove))
	assert.True(t, svc.Can(entity.RolePurchaseSpecialist, CapPOCreate))
	assert.False(t, svc.Can(entity.RolePurchaseSpecialist, CapPOCancel))

	// field roles
	assert.True(t, svc.Can(entity.RoleFieldEngineer, CapDeliveryRecord))
	assert.False(t, svc.Can(entity.RoleFieldEngineer, CapPOSend))
	assert.False(t, svc.Can(entity.RoleArchitect, CapDeliveryRecord))
	assert.True(t, svc.Can(entity.RoleArchitect, CapPRCreate))

	// clients can only observe
	assert.False(t, svc.Can(entity.RoleClient, CapDeliveryRecord))
	assert.False(t, svc.Can(entity.RoleClient, CapRatingSubmit))
	assert.False(t, svc.Can(entity.RoleClient, CapPRCreate))

	// only management may administer users and create projects
	assert.False(t, svc.Can(entity.RoleProjectManager, CapUserList))
	assert.False(t, svc.Can(entity.RoleProjectManager, CapProjectCreate))
	assert.True(t, svc.Can(entity.RoleProjectManager, CapProjectAssign))
}
