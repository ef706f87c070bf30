package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"trainerbook/internal/models"
)

const bookingsSheet = "Bookings"

// BookingsWorkbook renders a trainer's bookings for a date range into an
// xlsx workbook and returns the file contents.
func BookingsWorkbook(trainerID int64, start, end time.Time, bookings []*models.Booking) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(bookingsSheet, "A1", fmt.Sprintf("Trainer %d: %s - %s",
		trainerID, start.Format("02.01.2006"), end.Format("02.01.2006")))

	headers := []string{"ID", "Date", "Start", "End", "Client", "Status", "Note"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(bookingsSheet, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(bookingsSheet, "A2", "G2", headerStyle)

	for i, booking := range bookings {
		row := i + 3
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("A%d", row), booking.ID)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("B%d", row), booking.Date.Format("2006-01-02"))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("C%d", row), booking.StartMinute.Clock())
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("D%d", row), booking.EndMinute.Clock())
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("E%d", row), booking.ClientName)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("F%d", row), booking.Status)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("G%d", row), booking.Note)

		if styleID, err := statusStyle(f, booking.Status); err == nil {
			_ = f.SetCellStyle(bookingsSheet, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), styleID)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "A", 8)
	_ = f.SetColWidth(bookingsSheet, "B", "D", 12)
	_ = f.SetColWidth(bookingsSheet, "E", "E", 25)
	_ = f.SetColWidth(bookingsSheet, "F", "F", 12)
	_ = f.SetColWidth(bookingsSheet, "G", "G", 35)

	_ = f.MergeCell(bookingsSheet, "A1", "G1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(bookingsSheet, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	return f.WriteToBuffer()
}

func statusStyle(f *excelize.File, status string) (int, error) {
	var color string
	switch status {
	case models.StatusConfirmed, models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusPending:
		color = "#FFEB9C"
	case models.StatusCancelled:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}

	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
}
