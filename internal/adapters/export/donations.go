// Package export renders admin data as spreadsheet downloads.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"outreach/internal/domain/donation"
)

// ContentTypeXLSX is the media type of an Office Open XML workbook.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DonationsSheet names the single worksheet of the donations export.
const DonationsSheet = "Donations"

// amountFormat is the built-in "#,##0.00" number format.
const amountFormat = 4

var donationHeader = []any{"ID", "Donor", "Email", "Amount", "Date"}

// DonationsFilename returns the download name for an export taken on day now.
func DonationsFilename(now time.Time) string {
	return fmt.Sprintf("donations-%s.xlsx", now.Format("2006-01-02"))
}

// WriteDonations writes the donations as an XLSX workbook with a header row
// and a SUM row under the amount column.
// PRE: donations carry DonorName/DonorEmail when available
// POST: w holds a complete workbook or an error is returned
func WriteDonations(w io.Writer, donations []donation.Donation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DonationsSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header := donationHeader
	if err := f.SetSheetRow(DonationsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, d := range donations {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			d.ID,
			d.DonorName,
			d.DonorEmail,
			float64(d.AmountCents) / 100,
			d.DonatedAt.Format("2006-01-02"),
		}
		if err := f.SetSheetRow(DonationsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	totalRow := len(donations) + 2
	if err := f.SetCellValue(DonationsSheet, fmt.Sprintf("C%d", totalRow), "Total"); err != nil {
		return err
	}
	formula := "0"
	if len(donations) > 0 {
		formula = fmt.Sprintf("SUM(D2:D%d)", totalRow-1)
	}
	if err := f.SetCellFormula(DonationsSheet, fmt.Sprintf("D%d", totalRow), formula); err != nil {
		return fmt.Errorf("write total: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: amountFormat})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(DonationsSheet, "A1", "E1", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(DonationsSheet, "D2", fmt.Sprintf("D%d", totalRow), money); err != nil {
		return err
	}
	if err := f.SetColWidth(DonationsSheet, "B", "C", 28); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
