package aggregate

import (
	"fmt"
	"testing"
	"time"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

var jakarta = time.FixedZone("WIB", 7*3600)

func rep(id, class string, st models.Status, at time.Time) models.Report {
	return models.Report{ID: id, ClassName: class, Status: st, CreatedAt: at}
}

func TestDay_BoundariesAroundMidnight(t *testing.T) {
	now := time.Date(2024, 5, 14, 10, 0, 0, 0, jakarta)
	yesterday := rep("a", "X", models.StatusPending, time.Date(2024, 5, 13, 23, 59, 0, 0, jakarta))
	today := rep("b", "X", models.StatusPending, time.Date(2024, 5, 14, 0, 1, 0, 0, jakarta))

	day := Day(now, jakarta)
	if day.Contains(yesterday.CreatedAt) {
		t.Fatal("вчерашние 23:59 не должны попадать в сегодня")
	}
	if !day.Contains(today.CreatedAt) {
		t.Fatal("сегодняшние 00:01 должны попадать в сегодня")
	}
	c := Count([]models.Report{yesterday, today}, &day)
	if c.Total != 1 || c.Unhandled != 1 {
		t.Fatalf("ожидали одну заявку за сегодня, получили %+v", c)
	}
}

func TestDay_UsesConfiguredZone(t *testing.T) {
	// 18:00 UTC 13 мая — это уже 01:00 14 мая по Джакарте
	now := time.Date(2024, 5, 13, 18, 0, 0, 0, time.UTC)
	day := Day(now, jakarta)
	want := time.Date(2024, 5, 14, 0, 0, 0, 0, jakarta)
	if !day.From.Equal(want) || !day.To.Equal(want.Add(24*time.Hour)) {
		t.Fatalf("неверное окно %v — %v", day.From, day.To)
	}
	// начало окна включено, конец исключён
	if !day.Contains(day.From) || day.Contains(day.To) {
		t.Fatal("окно должно быть полуинтервалом")
	}
}

func TestCount_SumsToTotal(t *testing.T) {
	base := time.Date(2024, 5, 14, 8, 0, 0, 0, jakarta)
	var reports []models.Report
	for i := 0; i < 40; i++ {
		st := models.AllStatuses[i%len(models.AllStatuses)]
		reports = append(reports, rep(fmt.Sprint(i), "X", st, base.Add(time.Duration(i)*time.Hour)))
	}
	day := Day(base, jakarta)
	for _, w := range []*Window{nil, &day} {
		c := Count(reports, w)
		if c.Unhandled+c.InProgress+c.Closed != c.Total {
			t.Fatalf("сумма корзин не равна итогу: %+v", c)
		}
	}
	all := Count(reports, nil)
	if all.Total != 40 || all.Unhandled != 10 || all.InProgress != 10 || all.Closed != 20 {
		t.Fatalf("неожиданные счётчики %+v", all)
	}
	for _, b := range models.AllBuckets {
		if all.Of(b) == 0 {
			t.Fatalf("корзина %s пуста", b)
		}
	}
}

func TestList_SortAndFilter(t *testing.T) {
	t0 := time.Date(2024, 5, 14, 8, 0, 0, 0, jakarta)
	reports := []models.Report{
		rep("1", "X IPA 1", models.StatusPending, t0),
		rep("2", "XI IPS 2", models.StatusResolved, t0.Add(2*time.Hour)),
		rep("3", "X IPA 2", models.StatusContactingTeacher, t0.Add(time.Hour)),
		rep("4", "x ipa 3", models.StatusGivingTask, t0.Add(3*time.Hour)),
		rep("5", "XII", models.StatusPending, t0.Add(time.Hour)),
	}

	got := List(reports, Filter{})
	ids := ""
	for _, r := range got {
		ids += r.ID
	}
	// 3 и 5 с одинаковым временем идут в порядке входа
	if ids != "42351" {
		t.Fatalf("неверный порядок: %s", ids)
	}
	if reports[0].ID != "1" {
		t.Fatal("List не должен менять входной срез")
	}

	closed := models.BucketClosed
	got = List(reports, Filter{Bucket: &closed, Query: " IPA "})
	if len(got) != 1 || got[0].ID != "4" {
		t.Fatalf("фильтр resolved+ipa дал %#v", got)
	}

	unhandled := models.BucketUnhandled
	got = List(reports, Filter{Bucket: &unhandled})
	if len(got) != 2 || got[0].ID != "5" || got[1].ID != "1" {
		t.Fatalf("фильтр pending дал %#v", got)
	}
}

func TestCompute(t *testing.T) {
	now := time.Date(2024, 5, 14, 12, 0, 0, 0, jakarta)
	reports := []models.Report{
		rep("old", "X", models.StatusResolved, now.AddDate(0, 0, -2)),
		rep("a", "X", models.StatusPending, now.Add(-3*time.Hour)),
		rep("b", "X", models.StatusResolved, now.Add(-2*time.Hour)),
		rep("c", "X", models.StatusGivingTask, now.Add(-time.Hour)),
		rep("d", "X", models.StatusContactingTeacher, now.Add(-time.Minute)),
		rep("e", "X", models.StatusPending, now.Add(-30*time.Minute)),
	}
	s := Compute(reports, 7, now, jakarta, 4)

	if s.TotalReports != 6 || s.TotalClasses != 7 || s.ReportsToday != 5 || s.ClosedToday != 2 {
		t.Fatalf("неверные итоги %+v", s)
	}
	if s.All.Closed != 3 || s.Today.Unhandled != 2 || s.Today.InProgress != 1 {
		t.Fatalf("неверные корзины %+v / %+v", s.All, s.Today)
	}
	if len(s.Recent) != 4 || s.Recent[0].ID != "d" || s.Recent[3].ID != "b" {
		t.Fatalf("неверные последние заявки %#v", s.Recent)
	}

	empty := Compute(nil, 0, now, jakarta, 4)
	if empty.Recent == nil || len(empty.Recent) != 0 || empty.All.Total != 0 {
		t.Fatalf("пустой снимок: %+v", empty)
	}
}
