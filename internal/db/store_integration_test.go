//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/db"
	"github.com/Spok95/lapor-jamkos/internal/models"
	"github.com/Spok95/lapor-jamkos/internal/registry"
	"github.com/Spok95/lapor-jamkos/internal/testutil/testdb"
)

func startDB(t *testing.T) (*testdb.DBHandle, *db.Store) {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	return h, db.NewStore(h.DB)
}

func TestCreateClass_ParallelTokensUnique(t *testing.T) {
	_, st := startDB(t)
	reg := registry.New(st, zap.NewNop())
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		tokens = map[string]bool{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := reg.Create(ctx, fmt.Sprintf("Kelas %d", i))
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			tokens[c.Token] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	if len(tokens) != 50 {
		t.Fatalf("ожидали 50 уникальных токенов, получили %d", len(tokens))
	}
	if n, _ := st.CountClasses(ctx); n != 50 {
		t.Fatalf("ожидали 50 классов, получили %d", n)
	}
}

func TestCreateClass_SameTokenRejected(t *testing.T) {
	_, st := startDB(t)
	ctx := context.Background()
	if _, err := st.CreateClass(ctx, "X IPA 1", "tok"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateClass(ctx, "X IPA 2", "tok"); !errors.Is(err, db.ErrTokenTaken) {
		t.Fatalf("ожидали ErrTokenTaken, получили %v", err)
	}
}

func TestDeleteClass_RetiresTokenKeepsReports(t *testing.T) {
	_, st := startDB(t)
	ctx := context.Background()

	c, err := st.CreateClass(ctx, "XII IPA 1", "abc123")
	if err != nil {
		t.Fatal(err)
	}
	r, err := st.InsertReport(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := st.DeleteClass(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteClass(ctx, c.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("повторное удаление: ожидали ErrNotFound, получили %v", err)
	}
	if got, _ := st.GetClassByToken(ctx, "abc123"); got != nil {
		t.Fatal("токен удалённого класса не должен находиться")
	}
	if _, err := st.CreateClass(ctx, "Baru", "abc123"); !errors.Is(err, db.ErrTokenTaken) {
		t.Fatalf("выведенный токен выдан повторно: %v", err)
	}

	got, err := st.GetReport(ctx, r.ID)
	if err != nil || got == nil {
		t.Fatalf("заявка потерялась: %v", err)
	}
	if got.ClassID != nil || got.ClassName != "XII IPA 1" {
		t.Fatalf("ожидали снимок имени без ссылки на класс, получили %+v", got)
	}
}

func TestReport_LiveNameAndTriage(t *testing.T) {
	_, st := startDB(t)
	ctx := context.Background()

	c, _ := st.CreateClass(ctx, "X IPA 1", "tok1")
	r, err := st.InsertReport(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != models.StatusPending || r.PicketName != nil || r.MissingTeacherName != nil {
		t.Fatalf("новая заявка должна быть pending без имён: %+v", r)
	}
	if _, err := st.RenameClass(ctx, c.ID, "X IPA 2"); err != nil {
		t.Fatal(err)
	}
	got, _ := st.GetReport(ctx, r.ID)
	if got.ClassName != "X IPA 2" {
		t.Fatalf("ожидали живое имя класса, получили %q", got.ClassName)
	}

	upd, err := st.UpdateTriage(ctx, r.ID, models.Triage{
		Status: models.StatusGivingTask, PicketName: "Budi", MissingTeacherName: "Ibu Sari",
	})
	if err != nil {
		t.Fatal(err)
	}
	if upd.Status != models.StatusGivingTask || *upd.PicketName != "Budi" {
		t.Fatalf("неверная обработка: %+v", upd)
	}
	upd, err = st.UpdateTriage(ctx, r.ID, models.Triage{
		Status: models.StatusResolved, PicketName: "Ani", MissingTeacherName: "Pak Joko",
	})
	if err != nil {
		t.Fatal(err)
	}
	if *upd.PicketName != "Ani" || *upd.MissingTeacherName != "Pak Joko" {
		t.Fatalf("повторная обработка должна перезаписывать имена: %+v", upd)
	}

	// триггер не даёт вернуть заявку в pending даже мимо кода
	h := st.DB
	if _, err := h.ExecContext(ctx, `UPDATE reports SET status = 'pending' WHERE id = $1`, r.ID); err == nil {
		t.Fatal("возврат в pending должен отклоняться базой")
	}

	if _, err := st.UpdateTriage(ctx, "00000000-0000-0000-0000-000000000000", models.Triage{
		Status: models.StatusResolved, PicketName: "x", MissingTeacherName: "y",
	}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("неизвестная заявка: %v", err)
	}
	if _, err := st.InsertReport(ctx, "not-a-uuid"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("неверный id класса: %v", err)
	}
}

func TestReportsByStatus(t *testing.T) {
	_, st := startDB(t)
	ctx := context.Background()
	c, _ := st.CreateClass(ctx, "X IPA 1", "tok1")
	for i := 0; i < 3; i++ {
		if _, err := st.InsertReport(ctx, c.ID); err != nil {
			t.Fatal(err)
		}
	}
	all, _ := st.AllReports(ctx)
	if _, err := st.UpdateTriage(ctx, all[0].ID, models.Triage{
		Status: models.StatusResolved, PicketName: "Budi", MissingTeacherName: "Ibu Sari",
	}); err != nil {
		t.Fatal(err)
	}
	pending, err := st.ReportsByStatus(ctx, 10, models.StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("ожидали 2 pending, получили %d", len(pending))
	}
	for i := 1; i < len(pending); i++ {
		if pending[i].CreatedAt.After(pending[i-1].CreatedAt) {
			t.Fatal("ожидали сортировку от новых к старым")
		}
	}
}

func TestListener_ReceivesChanges(t *testing.T) {
	h, st := startDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := db.NewListener(h.DSN, zap.NewNop()).Listen(ctx)
	if err != nil {
		t.Fatal(err)
	}

	c, _ := st.CreateClass(ctx, "X IPA 1", "tok1")
	r, err := st.InsertReport(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	expect(t, changes, models.ChangeInsert, r.ID)

	if _, err := st.UpdateTriage(ctx, r.ID, models.Triage{
		Status: models.StatusResolved, PicketName: "Budi", MissingTeacherName: "Ibu Sari",
	}); err != nil {
		t.Fatal(err)
	}
	expect(t, changes, models.ChangeUpdate, r.ID)

	cancel()
	select {
	case _, ok := <-changes:
		if ok {
			for range changes {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("канал не закрылся после отмены")
	}
}

func expect(t *testing.T, ch <-chan models.ReportChange, op models.ChangeOp, id string) {
	t.Helper()
	select {
	case got := <-ch:
		if got.Op != op || got.ReportID != id {
			t.Fatalf("ожидали %s %s, получили %+v", op, id, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("не дождались %s", op)
	}
}
