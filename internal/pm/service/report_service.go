package service

import (
	"context"
	"fmt"
	"time"

	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"github.com/xuri/excelize/v2"
)

// ReportService xlsx exports
type ReportService struct {
	poRepo       *repository.PORepository
	deliveryRepo *repository.DeliveryRepository
}

func NewReportService(poRepo *repository.PORepository, deliveryRepo *repository.DeliveryRepository) *ReportService {
	return &ReportService{poRepo: poRepo, deliveryRepo: deliveryRepo}
}

var poRegisterHeaders = []string{
	"PO Number", "Project", "Request", "Vendor", "Status",
	"Ordered Qty", "Received Qty", "Completion %", "Amount", "Currency",
	"Expected Delivery", "Actual Delivery", "Created",
}

const poExportLimit = 5000

// ExportPORegister renders the purchase order register for the caller's scope
// as an xlsx workbook.
func (s *ReportService) ExportPORegister(ctx context.Context, filters map[string]string, accessibleIDs []string, restrict bool) (*excelize.File, string, error) {
	orders, _, err := s.poRepo.FindAll(ctx, 1, poExportLimit, filters, accessibleIDs, restrict)
	if err != nil {
		return nil, "", fmt.Errorf("list orders: %w", err)
	}

	poIDs := make([]string, 0, len(orders))
	for _, po := range orders {
		poIDs = append(poIDs, po.ID)
	}
	received, err := s.deliveryRepo.SumReceivedByPO(ctx, poIDs)
	if err != nil {
		return nil, "", fmt.Errorf("sum deliveries: %w", err)
	}

	f := excelize.NewFile()
	sheet := "PO Register"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range poRegisterHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	dateOrEmpty := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}

	for rowIdx, po := range orders {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), po.PONumber)

		var projectID, requestCode string
		var orderedQty float64
		if po.PurchaseRequest != nil {
			projectID = po.PurchaseRequest.ProjectID
			requestCode = po.PurchaseRequest.Code
			orderedQty = po.PurchaseRequest.Quantity
			if po.PurchaseRequest.Project != nil {
				projectID = po.PurchaseRequest.Project.Code
			}
		}
		vendorName := po.VendorID
		if po.Vendor != nil {
			vendorName = po.Vendor.CompanyName
		}
		receivedQty := received[po.ID]
		completion := completionPercentage(receivedQty, orderedQty)

		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), projectID)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), requestCode)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), vendorName)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), po.Status)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), orderedQty)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), receivedQty)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), completion)
		if po.TotalAmount != nil {
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), *po.TotalAmount)
		}
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), po.Currency)
		f.SetCellValue(sheet, fmt.Sprintf("K%d", row), dateOrEmpty(po.ExpectedDeliveryDate))
		f.SetCellValue(sheet, fmt.Sprintf("L%d", row), dateOrEmpty(po.ActualDeliveryDate))
		f.SetCellValue(sheet, fmt.Sprintf("M%d", row), po.CreatedAt.Format("2006-01-02"))
	}

	filename := fmt.Sprintf("po-register-%s.xlsx", time.Now().Format("20060102-150405"))
	return f, filename, nil
}
