// Package aggregate считает по снимку заявок счётчики по корзинам и окно "сегодня",
// а также сортирует и фильтрует списки. Инкрементальных счётчиков здесь нет:
// каждый вызов считает заново по переданному снимку.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

// Window: полуинтервал [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Day возвращает окно "сегодня" в зоне loc: [местная полночь, следующая полночь).
func Day(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{From: from, To: from.AddDate(0, 0, 1)}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

type Counts struct {
	Unhandled  int `json:"unhandled"`
	InProgress int `json:"in_progress"`
	Closed     int `json:"closed"`
	Total      int `json:"total"`
}

func (c *Counts) add(s models.Status) {
	switch s.Bucket() {
	case models.BucketUnhandled:
		c.Unhandled++
	case models.BucketInProgress:
		c.InProgress++
	case models.BucketClosed:
		c.Closed++
	}
	c.Total++
}

// Of: счётчик конкретной корзины.
func (c Counts) Of(b models.Bucket) int {
	switch b {
	case models.BucketUnhandled:
		return c.Unhandled
	case models.BucketInProgress:
		return c.InProgress
	case models.BucketClosed:
		return c.Closed
	}
	return 0
}

// Count считает заявки по корзинам; w == nil — за всё время.
func Count(reports []models.Report, w *Window) Counts {
	var c Counts
	for _, r := range reports {
		if w != nil && !w.Contains(r.CreatedAt) {
			continue
		}
		c.add(r.Status)
	}
	return c
}

// Filter задаёт проекцию для списков: корзина, поиск по имени класса, окно времени.
type Filter struct {
	Bucket *models.Bucket
	Query  string
	Window *Window
}

func (f Filter) match(r models.Report, q string) bool {
	if f.Bucket != nil && r.Status.Bucket() != *f.Bucket {
		return false
	}
	if f.Window != nil && !f.Window.Contains(r.CreatedAt) {
		return false
	}
	if q != "" && !strings.Contains(strings.ToLower(r.ClassName), q) {
		return false
	}
	return true
}

// List возвращает новую выборку, от новых к старым. Входной срез не меняется;
// при равном времени порядок входа сохраняется.
func List(reports []models.Report, f Filter) []models.Report {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if f.match(r, q) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Snapshot: всё, что показывают дашборд и история, посчитанное за один проход.
type Snapshot struct {
	At           time.Time       `json:"at"`
	Today        Counts          `json:"today"`
	All          Counts          `json:"all"`
	TotalReports int             `json:"total_reports"`
	TotalClasses int             `json:"total_classes"`
	ReportsToday int             `json:"reports_today"`
	ClosedToday  int             `json:"closed_today"`
	Recent       []models.Report `json:"recent"`
}

// Compute: полный пересчёт снимка. recentLimit <= 0 — без последних заявок.
func Compute(reports []models.Report, totalClasses int, now time.Time, loc *time.Location, recentLimit int) Snapshot {
	day := Day(now, loc)
	s := Snapshot{
		At:           now,
		Today:        Count(reports, &day),
		All:          Count(reports, nil),
		TotalClasses: totalClasses,
		Recent:       []models.Report{},
	}
	s.TotalReports = s.All.Total
	s.ReportsToday = s.Today.Total
	s.ClosedToday = s.Today.Closed
	if recentLimit > 0 {
		sorted := List(reports, Filter{})
		if len(sorted) > recentLimit {
			sorted = sorted[:recentLimit]
		}
		s.Recent = sorted
	}
	return s
}
