package export

import (
	"bytes"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

const reportsSheet = "Laporan"

var reportsHeader = []string{"Waktu", "Kelas", "Status", "Petugas Piket", "Guru Berhalangan"}

// ReportsWorkbook: история заявок в один лист; порядок строк как во входном срезе.
func ReportsWorkbook(reports []models.Report, loc *time.Location) (*excelize.File, error) {
	sheet := SheetSpec{Title: reportsSheet, Header: reportsHeader}
	for _, r := range reports {
		sheet.Rows = append(sheet.Rows, []string{
			r.CreatedAt.In(loc).Format("02.01.2006 15:04"),
			r.ClassName,
			r.Status.Label(),
			deref(r.PicketName),
			deref(r.MissingTeacherName),
		})
	}
	return NewWorkbook([]SheetSpec{sheet})
}

// ReportsXLSX: то же, сразу в байтах для ответа HTTP.
func ReportsXLSX(reports []models.Report, loc *time.Location) ([]byte, error) {
	f, err := ReportsWorkbook(reports, loc)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
