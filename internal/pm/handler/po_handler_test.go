package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
	"github.com/keramy/formulapmv2-sub007/internal/pm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newPOTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	logger := zap.NewNop()

	access := service.NewAccessService(repos.Project, logger)
	procurement := service.NewProcurementService(db, repos.PR, repos.PO, repos.ActivityLog, repos.Notification, logger)
	delivery := service.NewDeliveryService(db, repos.PO, repos.Delivery, repos.Notification, logger)
	report := service.NewReportService(repos.PO, repos.Delivery)
	h := NewPOHandler(procurement, delivery, report, access)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	api.GET("/purchase-orders", h.ListPOs)
	api.POST("/purchase-orders", h.CreatePO)
	api.GET("/purchase-orders/export", h.ExportRegister)
	api.GET("/purchase-orders/:id", h.GetPO)
	api.POST("/purchase-orders/:id/send", h.SendPO)
	api.POST("/purchase-orders/:id/deliveries", h.RecordDelivery)
	api.GET("/purchase-orders/:id/deliveries", h.ListDeliveries)
	return r, db
}

func tokenFor(user *entity.User) string {
	return testutil.GenerateTestToken(user.ID, user.Name, user.Email, user.Role)
}

func deliveryBody(received, ordered float64) map[string]interface{} {
	return map[string]interface{}{
		"delivery_date":     time.Now().Format(time.RFC3339),
		"quantity_received": received,
		"quantity_ordered":  ordered,
	}
}

func TestPO_RequiresAuth(t *testing.T) {
	r, _ := newPOTestRouter(t)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/purchase-orders", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := testutil.ParseResponse(w)
	assert.Equal(t, false, body["success"])
}

func TestGetPO_OutOfScopeIsHidden(t *testing.T) {
	r, db := newPOTestRouter(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	outsider := testutil.SeedUser(t, db, "Engineer", entity.RoleFieldEngineer)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/purchase-orders/"+po.ID, nil, tokenFor(outsider))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// once assigned the same request succeeds
	testutil.SeedAssignment(t, db, project.ID, outsider.ID, true)
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/purchase-orders/"+po.ID, nil, tokenFor(outsider))
	assert.Equal(t, http.StatusOK, w.Code)
	body := testutil.ParseResponse(w)
	assert.Equal(t, true, body["success"])
}

func TestSendPO_InScopeWithoutCapabilityIsForbidden(t *testing.T) {
	r, db := newPOTestRouter(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusDraft)

	engineer := testutil.SeedUser(t, db, "Engineer", entity.RoleFieldEngineer)
	testutil.SeedAssignment(t, db, project.ID, engineer.ID, true)

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/purchase-orders/"+po.ID+"/send", nil, tokenFor(engineer))
	assert.Equal(t, http.StatusForbidden, w.Code)

	specialist := testutil.SeedUser(t, db, "Buyer", entity.RolePurchaseSpecialist)
	testutil.SeedAssignment(t, db, project.ID, specialist.ID, true)
	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/purchase-orders/"+po.ID+"/send", nil, tokenFor(specialist))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecordDelivery_EndToEnd(t *testing.T) {
	r, db := newPOTestRouter(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	engineer := testutil.SeedUser(t, db, "Engineer", entity.RoleFieldEngineer)
	testutil.SeedAssignment(t, db, project.ID, engineer.ID, true)
	token := tokenFor(engineer)
	path := "/api/v1/purchase-orders/" + po.ID + "/deliveries"

	w := testutil.DoRequest(r, http.MethodPost, path, deliveryBody(40, 100), token)
	require.Equal(t, http.StatusCreated, w.Code)
	body := testutil.ParseResponse(w)
	assert.Equal(t, true, body["success"])

	// exceeding the ordered quantity is rejected with the running totals
	w = testutil.DoRequest(r, http.MethodPost, path, deliveryBody(70, 100), token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body = testutil.ParseResponse(w)
	assert.Contains(t, body["error"], "exceed")

	w = testutil.DoRequest(r, http.MethodGet, path, nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecordDelivery_ReplaySameKeyReturnsOK(t *testing.T) {
	r, db := newPOTestRouter(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	po := testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusConfirmed)

	engineer := testutil.SeedUser(t, db, "Engineer", entity.RoleFieldEngineer)
	testutil.SeedAssignment(t, db, project.ID, engineer.ID, true)
	token := tokenFor(engineer)
	path := "/api/v1/purchase-orders/" + po.ID + "/deliveries"

	body := deliveryBody(40, 100)
	body["idempotency_key"] = "retry-once"

	w := testutil.DoRequest(r, http.MethodPost, path, body, token)
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutil.DoRequest(r, http.MethodPost, path, body, token)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&entity.DeliveryConfirmation{}).
		Where("purchase_order_id = ?", po.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListPOs_ScopedToAssignments(t *testing.T) {
	r, db := newPOTestRouter(t)
	vendor := testutil.SeedVendor(t, db, "Steel Co")

	mine := testutil.SeedProject(t, db, "Tower A")
	other := testutil.SeedProject(t, db, "Tower B")
	for i, p := range []*entity.Project{mine, other} {
		pr := testutil.SeedPR(t, db, p.ID, float64(100+i), entity.PRStatusOrdered)
		testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)
	}

	pm := testutil.SeedUser(t, db, "PM", entity.RoleProjectManager)
	testutil.SeedAssignment(t, db, mine.ID, pm.ID, true)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/purchase-orders", nil, tokenFor(pm))
	require.Equal(t, http.StatusOK, w.Code)
	body := testutil.ParseResponse(w)
	data := body["data"].(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])

	// management sees everything
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/purchase-orders", nil, testutil.DefaultTestToken())
	require.Equal(t, http.StatusOK, w.Code)
	body = testutil.ParseResponse(w)
	data = body["data"].(map[string]interface{})
	pagination = data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total"])
}

func TestExportRegister(t *testing.T) {
	r, db := newPOTestRouter(t)
	project := testutil.SeedProject(t, db, "Tower A")
	vendor := testutil.SeedVendor(t, db, "Steel Co")
	pr := testutil.SeedPR(t, db, project.ID, 100, entity.PRStatusOrdered)
	testutil.SeedPO(t, db, pr.ID, vendor.ID, entity.POStatusSent)

	engineer := testutil.SeedUser(t, db, "Engineer", entity.RoleFieldEngineer)
	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/purchase-orders/export", nil, tokenFor(engineer))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/purchase-orders/export", nil, testutil.DefaultTestToken())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())
}
