package service

import (
	"context"
	"fmt"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/report"
	"arriendo-cajas-backend/internal/repository"
)

type reportService struct {
	reports   repository.ReportRepository
	rentals   repository.RentalRepository
	customers repository.CustomerRepository
	drivers   repository.DriverRepository
	excel     *report.ExcelGenerator
	pdf       *report.PDFGenerator
	now       func() time.Time
}

func NewReportService(
	reports repository.ReportRepository,
	rentals repository.RentalRepository,
	customers repository.CustomerRepository,
	drivers repository.DriverRepository,
) ReportService {
	return &reportService{
		reports:   reports,
		rentals:   rentals,
		customers: customers,
		drivers:   drivers,
		excel:     report.NewExcelGenerator(),
		pdf:       report.NewPDFGenerator(),
		now:       time.Now,
	}
}

func validRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return domain.NewValidationError("from", "from and to are required")
	}
	if to.Before(from) {
		return domain.NewValidationError("to", "must not be before from")
	}
	return nil
}

func (s *reportService) Summary(ctx context.Context, from, to time.Time) (*domain.ReportSummary, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	return s.reports.Summary(ctx, from, to)
}

func (s *reportService) ExportXLSX(ctx context.Context, from, to time.Time) ([]byte, error) {
	data, err := s.collect(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return s.excel.Generate(*data)
}

func (s *reportService) ExportPDF(ctx context.Context, from, to time.Time) ([]byte, error) {
	data, err := s.collect(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return s.pdf.Generate(*data)
}

// collect loads the summary and every rental delivered in range, resolving names once per id
func (s *reportService) collect(ctx context.Context, from, to time.Time) (*report.Data, error) {
	summary, err := s.Summary(ctx, from, to)
	if err != nil {
		return nil, err
	}

	rentals, _, err := s.rentals.List(ctx, domain.RentalFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals for report: %w", err)
	}

	customerNames := map[int64]string{}
	driverNames := map[int64]string{}
	data := &report.Data{From: from, To: to, GeneratedAt: s.now(), Summary: summary}

	for _, r := range rentals {
		row := report.Row{Rental: r}

		name, ok := customerNames[r.CustomerID]
		if !ok {
			if c, err := s.customers.GetByID(ctx, r.CustomerID); err == nil {
				name = c.Name
			} else {
				logger.Warn("Customer missing from report", "customerID", r.CustomerID, "error", err)
			}
			customerNames[r.CustomerID] = name
		}
		row.CustomerName = name

		if r.DriverID != nil {
			dname, ok := driverNames[*r.DriverID]
			if !ok {
				if d, err := s.drivers.GetByID(ctx, *r.DriverID); err == nil {
					dname = d.Name
				}
				driverNames[*r.DriverID] = dname
			}
			row.DriverName = dname
		}
		data.Rows = append(data.Rows, row)
	}
	return data, nil
}
