package excel

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/leadforgehq/outreach-backend/internal/models"
)

// Service handles XLSX parsing for lead import and lead export
type Service struct{}

// NewExcelService creates a new Excel service instance
func NewExcelService() *Service {
	return &Service{}
}

// ParseRows reads the first sheet of an XLSX file into the same
// header-first row form the CSV importer consumes
func (s *Service) ParseRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// leadExportHeaders is the column layout of a lead export
var leadExportHeaders = []string{
	"Name", "Email", "Company", "Position", "Industry",
	"Phone", "Website", "LinkedIn", "Location", "Status",
	"Source", "Segment", "Last Contacted", "Created",
}

// ExportLeads builds an XLSX workbook from the given leads
func (s *Service) ExportLeads(leads []*models.Lead) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Leads"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range leadExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, lead := range leads {
		segmentName := ""
		if lead.Segment != nil {
			segmentName = lead.Segment.Name
		}
		values := []interface{}{
			lead.Name, lead.Email, lead.Company, lead.Position, lead.Industry,
			lead.Phone, lead.Website, lead.LinkedInURL, lead.Location, lead.Status,
			lead.Source, segmentName,
			formatTimePtr(lead.LastContactedAt),
			lead.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	return f, nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
