package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"localdeals-backend/internal/domains/redemption/model"
)

const (
	ledgerSheet = "Redemptions"
	// số dòng tối đa trong một file export
	maxExportRows = 1000
)

var ledgerHeaders = []string{
	"Redemption ID",
	"Subscriber ID",
	"Status",
	"Usage Limit",
	"Month",
	"Created At",
	"Expires At",
	"Redeemed At",
}

// ExportCouponRedemptions builds an XLSX of the coupon's ledger for its owning
// business. Only the first maxExportRows rows matching filter are included.
func (s *redemptionService) ExportCouponRedemptions(ctx context.Context, businessID, couponID uuid.UUID, filter model.LedgerFilter) (*excelize.File, *model.LedgerPage, error) {
	filter.Offset = 0
	if filter.Limit <= 0 || filter.Limit > maxExportRows {
		filter.Limit = maxExportRows
	}

	page, err := s.ListCouponRedemptions(ctx, businessID, couponID, filter)
	if err != nil {
		return nil, nil, err
	}
	if page.Rejection != nil {
		return nil, page, nil
	}

	f, err := s.buildLedgerFile(page.Items)
	if err != nil {
		return nil, nil, fmt.Errorf("build ledger file: %w", err)
	}
	return f, page, nil
}

func (s *redemptionService) buildLedgerFile(items []model.Redemption) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return nil, err
	}

	for col, header := range ledgerHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(ledgerSheet, cell, header); err != nil {
			return nil, err
		}
	}

	// Header in đậm
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(ledgerHeaders))
		_ = f.SetCellStyle(ledgerSheet, "A1", lastCol+"1", headerStyle)
	}

	// Thời gian hiển thị theo timezone của deal
	format := func(t time.Time) string {
		return t.In(s.cfg.Location).Format("2006-01-02 15:04:05")
	}

	for i, rd := range items {
		row := i + 2
		redeemedAt := ""
		if rd.RedeemedAt != nil {
			redeemedAt = format(*rd.RedeemedAt)
		}

		values := []interface{}{
			rd.ID.String(),
			rd.SubscriberID.String(),
			string(rd.Status),
			string(rd.UsageLimit),
			rd.RedemptionMonth,
			format(rd.CreatedAt),
			format(rd.ExpiresAt),
			redeemedAt,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ledgerSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	return f, nil
}
