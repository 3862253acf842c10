package service

import (
	"github.com/keramy/formulapmv2-sub007/internal/config"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services service collection
type Services struct {
	Auth         *AuthService
	Access       *AccessService
	Project      *ProjectService
	Vendor       *VendorService
	Procurement  *ProcurementService
	Delivery     *DeliveryService
	Rating       *RatingService
	Notification *NotificationService
	Dashboard    *DashboardService
	Report       *ReportService
	Storage      *StorageService
}

// NewServices wires the service collection. rdb may be nil, the scope cache
// is then disabled. MinIO is optional for the same reason.
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("object storage unavailable", zap.Error(err))
		} else {
			minioClient = client
		}
	}

	access := NewAccessService(repos.Project, logger)
	if rdb != nil {
		access.SetCache(rdb)
	}

	return &Services{
		Auth:         NewAuthService(repos.User, cfg.JWT.Secret, cfg.JWT.AccessTokenExpire),
		Access:       access,
		Project:      NewProjectService(repos.Project, repos.User, access),
		Vendor:       NewVendorService(repos.Vendor),
		Procurement:  NewProcurementService(db, repos.PR, repos.PO, repos.ActivityLog, repos.Notification, logger),
		Delivery:     NewDeliveryService(db, repos.PO, repos.Delivery, repos.Notification, logger),
		Rating:       NewRatingService(repos.Rating, repos.Vendor, repos.PO, repos.Project),
		Notification: NewNotificationService(repos.Notification),
		Dashboard:    NewDashboardService(repos.Project, repos.PR, repos.PO, repos.Delivery),
		Report:       NewReportService(repos.PO, repos.Delivery),
		Storage:      NewStorageService(minioClient, cfg.MinIO.Bucket),
	}
}
