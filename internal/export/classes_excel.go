package export

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

// SheetSpec описывает лист книги: заголовок и строки как есть.
type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

// NewWorkbook собирает книгу из листов в заданном порядке; первый лист занимает место Sheet1.
func NewWorkbook(sheets []SheetSpec) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := fillWorkbook(f, sheets); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func fillWorkbook(f *excelize.File, sheets []SheetSpec) error {
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Title); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Title); err != nil {
			return fmt.Errorf("new sheet: %w", err)
		}
		header := s.Header
		if err := f.SetSheetRow(s.Title, "A1", &header); err != nil {
			return fmt.Errorf("header %s: %w", s.Title, err)
		}
		for r, row := range s.Rows {
			row := row
			cell := fmt.Sprintf("A%d", r+2)
			if err := f.SetSheetRow(s.Title, cell, &row); err != nil {
				return fmt.Errorf("set row %s: %w", cell, err)
			}
		}
		if err := ApplyDefaultExcelFormatting(f, s.Title); err != nil {
			return err
		}
	}
	return nil
}

// ClassesXLSX: список классов с QR-ссылками для печати и сводка заявок по классам.
// В сводке строка на каждый класс из classes в том же порядке, затем заявки
// удалённых классов, сгруппированные по сохранённому имени.
func ClassesXLSX(classes []models.Classroom, reports []models.Report, payload func(token string) string, loc *time.Location) ([]byte, error) {
	list := SheetSpec{
		Title:  "Kelas",
		Header: []string{"Nama Kelas", "Token", "Tautan QR", "Dibuat"},
	}
	for _, c := range classes {
		list.Rows = append(list.Rows, []string{c.Name, c.Token, payload(c.Token), c.CreatedAt.In(loc).Format("02.01.2006")})
	}

	// живые классы считаем по id: имена могут совпадать
	type tally struct {
		name      string
		total     int
		unhandled int
		progress  int
		closed    int
	}
	byClass := make(map[string]*tally, len(classes))
	rows := make([]*tally, 0, len(classes))
	for _, c := range classes {
		t := &tally{name: c.Name}
		byClass[c.ID] = t
		rows = append(rows, t)
	}
	orphans := map[string]*tally{}
	var orphanNames []string
	for _, r := range reports {
		var t *tally
		if r.ClassID != nil {
			t = byClass[*r.ClassID]
		}
		if t == nil {
			t = orphans[r.ClassName]
			if t == nil {
				t = &tally{name: r.ClassName}
				orphans[r.ClassName] = t
				orphanNames = append(orphanNames, r.ClassName)
			}
		}
		t.total++
		switch r.Status.Bucket() {
		case models.BucketUnhandled:
			t.unhandled++
		case models.BucketInProgress:
			t.progress++
		case models.BucketClosed:
			t.closed++
		}
	}
	sort.Strings(orphanNames)
	for _, n := range orphanNames {
		rows = append(rows, orphans[n])
	}

	summary := SheetSpec{
		Title:  "Ringkasan",
		Header: []string{"Kelas", "Total Laporan", "Belum Ditangani", "Diproses", "Selesai"},
	}
	for _, t := range rows {
		summary.Rows = append(summary.Rows, []string{t.name,
			fmt.Sprint(t.total), fmt.Sprint(t.unhandled), fmt.Sprint(t.progress), fmt.Sprint(t.closed)})
	}

	f, err := NewWorkbook([]SheetSpec{list, summary})
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

// BuildClassesFilename: «Daftar Kelas — YYYY-MM-DD.xlsx».
func BuildClassesFilename(at time.Time) string {
	return sanitizeFileName(fmt.Sprintf("Daftar Kelas — %s.xlsx", at.Format("2006-01-02")))
}
