package bill

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Bills"

var exportHeaders = []string{"Bill ID", "Upload Date", "Item", "Category", "Quantity", "Price", "Bill Total", "Status"}

// ExportBills renders all of a user's bills as an XLSX workbook, one row
// per item, newest bill first. Bills with no items still get a row so the
// export accounts for every bill.
func (s *Service) ExportBills(userID string) ([]byte, error) {
	bills, err := s.db.ListBills(userID)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for _, b := range bills {
		date := b.UploadDate.Format("2006-01-02 15:04")
		if len(b.Items) == 0 {
			if err := setExportRow(f, row, []any{b.ID, date, "", "", "", "", b.TotalAmount, b.Status}); err != nil {
				return nil, err
			}
			row++
			continue
		}
		for _, item := range b.Items {
			if err := setExportRow(f, row, []any{b.ID, date, item.Name, item.Category, item.Quantity, item.Price, b.TotalAmount, b.Status}); err != nil {
				return nil, err
			}
			row++
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "B", 24); err != nil {
		return nil, fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(exportSheet, "C", "H", 16); err != nil {
		return nil, fmt.Errorf("sizing columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setExportRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("locating row %d: %w", row, err)
	}
	if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}
