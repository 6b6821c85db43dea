package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/xuri/excelize/v2"
)

// ExportSheetName is the worksheet that holds exported rows.
const ExportSheetName = "Students"

// ExportHeader is the column order of every export.
var ExportHeader = []string{"Name", "Reg", "Dept", "Blood", "Year", "Marks"}

// ExportService renders student rows as CSV or XLSX.
type ExportService struct {
	log zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(log zerolog.Logger) *ExportService {
	return &ExportService{log: log.With().Str("component", "export_service").Logger()}
}

func exportRecord(s *model.Student) []string {
	return []string{
		s.Name,
		s.RegistrationNumber,
		s.Department,
		s.BloodGroup,
		strconv.Itoa(s.Year),
		strconv.FormatFloat(s.AverageMarks, 'f', -1, 64),
	}
}

// WriteCSV writes the header and one line per row.
func (s *ExportService) WriteCSV(w io.Writer, rows []model.Student) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(exportRecord(&rows[i])); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSX renders the rows into a single-sheet workbook.
func (s *ExportService) XLSX(rows []model.Student) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(ExportSheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(ExportSheetName, "A", "A", 24)
	f.SetColWidth(ExportSheetName, "B", "D", 16)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	header := make([]interface{}, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(ExportHeader), 1)
	f.SetCellStyle(ExportSheetName, "A1", lastHeader, headerStyle)

	for i := range rows {
		r := &rows[i]
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{r.Name, r.RegistrationNumber, r.Department, r.BloodGroup, r.Year, r.AverageMarks}
		if err := f.SetSheetRow(ExportSheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.log.Error().Err(err).Int("rows", len(rows)).Msg("failed to render workbook")
		return nil, err
	}
	return buf, nil
}
