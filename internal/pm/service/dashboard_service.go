package service

import (
	"context"
	"time"

	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"golang.org/x/sync/errgroup"
)

// DashboardService scope-filtered summary counters for the landing page
type DashboardService struct {
	projectRepo  *repository.ProjectRepository
	prRepo       *repository.PRRepository
	poRepo       *repository.PORepository
	deliveryRepo *repository.DeliveryRepository
}

func NewDashboardService(projectRepo *repository.ProjectRepository, prRepo *repository.PRRepository, poRepo *repository.PORepository, deliveryRepo *repository.DeliveryRepository) *DashboardService {
	return &DashboardService{projectRepo: projectRepo, prRepo: prRepo, poRepo: poRepo, deliveryRepo: deliveryRepo}
}

// DashboardSummary counters restricted to the caller's project scope
type DashboardSummary struct {
	ActiveProjects     int64 `json:"active_projects"`
	PendingRequests    int64 `json:"pending_requests"`
	OpenOrders         int64 `json:"open_orders"`
	OverdueOrders      int64 `json:"overdue_orders"`
	DeliveriesThisWeek int64 `json:"deliveries_this_week"`
}

// GetSummary gathers the counters concurrently. Every query applies the same
// access scope, so all roles see consistent numbers.
func (s *DashboardService) GetSummary(ctx context.Context, accessibleIDs []string, restrict bool) (*DashboardSummary, error) {
	summary := &DashboardSummary{}
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.projectRepo.CountByStatus(gctx, entity.ProjectStatusActive, accessibleIDs, restrict)
		summary.ActiveProjects = n
		return err
	})
	g.Go(func() error {
		n, err := s.prRepo.CountByStatus(gctx, entity.PRStatusPending, accessibleIDs, restrict)
		summary.PendingRequests = n
		return err
	})
	g.Go(func() error {
		n, err := s.poRepo.CountByStatuses(gctx, []string{entity.POStatusSent, entity.POStatusConfirmed}, accessibleIDs, restrict)
		summary.OpenOrders = n
		return err
	})
	g.Go(func() error {
		n, err := s.poRepo.CountOverdue(gctx, now, accessibleIDs, restrict)
		summary.OverdueOrders = n
		return err
	})
	g.Go(func() error {
		n, err := s.deliveryRepo.CountSince(gctx, weekAgo, accessibleIDs, restrict)
		summary.DeliveriesThisWeek = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}
