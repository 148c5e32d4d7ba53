// Package report renders the RT data as a spreadsheet for the board.
package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kittclouds/rtdb/internal/store"
)

// Sheet names.
const (
	SheetWarga   = "Warga"
	SheetLaporan = "Laporan Keamanan"
)

// WargaHeader is the header row of the Warga sheet.
var WargaHeader = []string{"ID", "Nama", "Alamat", "Status", "Telepon"}

// LaporanHeader is the header row of the Laporan Keamanan sheet.
var LaporanHeader = []string{
	"ID", "Jenis Kejadian", "Lokasi", "Tanggal", "Status", "Prioritas",
	"Nama Pelapor", "Telepon Pelapor", "Kronologi",
}

// Source provides the rows to render.
type Source interface {
	GetAllWarga(ctx context.Context) ([]store.Warga, error)
	GetAllSecurityReports(ctx context.Context) ([]store.SecurityReport, error)
}

// Generate reads everything from src and renders the workbook.
func Generate(ctx context.Context, src Source) ([]byte, error) {
	warga, err := src.GetAllWarga(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list warga: %w", err)
	}
	reports, err := src.GetAllSecurityReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list security reports: %w", err)
	}
	return Workbook(warga, reports)
}

// Workbook renders residents and security reports into an xlsx file.
func Workbook(warga []store.Warga, reports []store.SecurityReport) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open, so Close runs explicitly at the end.

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	wargaRows := make([][]any, 0, len(warga))
	for _, w := range warga {
		wargaRows = append(wargaRows, []any{w.ID, w.Nama, w.Alamat, w.Status, w.Telepon})
	}
	reportRows := make([][]any, 0, len(reports))
	for _, r := range reports {
		reportRows = append(reportRows, []any{
			r.ID, r.JenisKejadian, r.Lokasi, r.Tanggal, r.Status, r.Priority,
			r.NamaPelapor, r.TeleponPelapor, r.Kronologi,
		})
	}

	sheets := []struct {
		name   string
		header []string
		widths []float64
		rows   [][]any
	}{
		{SheetWarga, WargaHeader, []float64{8, 28, 32, 12, 18}, wargaRows},
		{SheetLaporan, LaporanHeader, []float64{8, 20, 24, 14, 12, 12, 22, 18, 48}, reportRows},
	}

	for i, sh := range sheets {
		index, err := f.NewSheet(sh.name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", sh.name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}
		if err := writeSheet(f, sh.name, sh.header, sh.widths, sh.rows, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	// Drop the default Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, widths []float64, rows [][]any, headerStyle int) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}

	// Freeze the header
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}
