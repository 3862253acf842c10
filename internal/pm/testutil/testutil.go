package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/keramy/formulapmv2-sub007/internal/middleware"
	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "formula-pm-test-secret"

// SetupTestDB opens an isolated in-memory database with all tables migrated
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.User{},
		&entity.Client{},
		&entity.Project{},
		&entity.ProjectAssignment{},
		&entity.Vendor{},
		&entity.VendorRating{},
		&entity.PurchaseRequest{},
		&entity.PurchaseOrder{},
		&entity.DeliveryConfirmation{},
		&entity.Notification{},
		&entity.ActivityLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group guarded by JWT auth
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid signed token for a test identity
func GenerateTestToken(userID, name, email, role string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"uid":   userID,
		"name":  name,
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default admin test user
func DefaultTestToken() string {
	return GenerateTestToken("test-admin-001", "Test Admin", "admin@test.com", entity.RoleAdmin)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses a JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// === Seeders ===

// SeedUser creates a user with the given role
func SeedUser(t *testing.T, db *gorm.DB, name, role string) *entity.User {
	t.Helper()
	id := uuid.New().String()
	user := &entity.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@test.com", id[:8]),
		PasswordHash: "$2a$10$test.hash.placeholder.0000000000000000000000000000",
		Name:         name,
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedProject creates an active project
func SeedProject(t *testing.T, db *gorm.DB, name string) *entity.Project {
	t.Helper()
	project := &entity.Project{
		ID:     uuid.New().String(),
		Code:   fmt.Sprintf("PRJ-2026-%04d", time.Now().UnixNano()%10000),
		Name:   name,
		Status: entity.ProjectStatusActive,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return project
}

// SeedAssignment links a user to a project
func SeedAssignment(t *testing.T, db *gorm.DB, projectID, userID string, active bool) *entity.ProjectAssignment {
	t.Helper()
	assignment := &entity.ProjectAssignment{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		UserID:    userID,
		IsActive:  active,
	}
	if err := db.Create(assignment).Error; err != nil {
		t.Fatalf("Failed to seed assignment: %v", err)
	}
	return assignment
}

// SeedClient creates a client record owned by a login
func SeedClient(t *testing.T, db *gorm.DB, userID, companyName string) *entity.Client {
	t.Helper()
	client := &entity.Client{
		ID:          uuid.New().String(),
		UserID:      userID,
		CompanyName: companyName,
	}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("Failed to seed client: %v", err)
	}
	return client
}

// SeedVendor creates an active vendor
func SeedVendor(t *testing.T, db *gorm.DB, companyName string) *entity.Vendor {
	t.Helper()
	vendor := &entity.Vendor{
		ID:          uuid.New().String(),
		Code:        fmt.Sprintf("VEN-%04d", time.Now().UnixNano()%10000),
		CompanyName: companyName,
		IsActive:    true,
	}
	if err := db.Create(vendor).Error; err != nil {
		t.Fatalf("Failed to seed vendor: %v", err)
	}
	return vendor
}

// SeedPR creates a purchase request in the given status
func SeedPR(t *testing.T, db *gorm.DB, projectID string, quantity float64, status string) *entity.PurchaseRequest {
	t.Helper()
	pr := &entity.PurchaseRequest{
		ID:              uuid.New().String(),
		Code:            fmt.Sprintf("PR-2026-%04d", time.Now().UnixNano()%10000),
		ProjectID:       projectID,
		ItemDescription: "Rebar 12mm",
		Quantity:        quantity,
		Unit:            "t",
		Urgency:         entity.UrgencyNormal,
		Status:          status,
	}
	if err := db.Create(pr).Error; err != nil {
		t.Fatalf("Failed to seed purchase request: %v", err)
	}
	return pr
}

// SeedPO creates a purchase order against a request
func SeedPO(t *testing.T, db *gorm.DB, prID, vendorID, status string) *entity.PurchaseOrder {
	t.Helper()
	po := &entity.PurchaseOrder{
		ID:                uuid.New().String(),
		PONumber:          fmt.Sprintf("PO-2026-%04d", time.Now().UnixNano()%10000),
		PurchaseRequestID: prID,
		VendorID:          vendorID,
		Status:            status,
		Currency:          "USD",
	}
	if err := db.Create(po).Error; err != nil {
		t.Fatalf("Failed to seed purchase order: %v", err)
	}
	return po
}

// SeedDelivery records a delivery confirmation directly
func SeedDelivery(t *testing.T, db *gorm.DB, poID string, received, ordered float64) *entity.DeliveryConfirmation {
	t.Helper()
	dc := &entity.DeliveryConfirmation{
		ID:               uuid.New().String(),
		PurchaseOrderID:  poID,
		ConfirmedBy:      "test-user",
		DeliveryDate:     time.Now(),
		QuantityReceived: received,
		QuantityOrdered:  ordered,
		Status:           entity.DeliveryStatusPartial,
	}
	if err := db.Create(dc).Error; err != nil {
		t.Fatalf("Failed to seed delivery: %v", err)
	}
	// keep the order's running total in step with its confirmations
	err := db.Model(&entity.PurchaseOrder{}).
		Where("id = ?", poID).
		UpdateColumn("quantity_received", gorm.Expr("quantity_received + ?", received)).Error
	if err != nil {
		t.Fatalf("Failed to update order received total: %v", err)
	}
	return dc
}
