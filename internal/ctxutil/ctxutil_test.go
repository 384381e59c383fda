package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := Session(ctx); ok {
		t.Fatal("пустой контекст не должен содержать сессию")
	}
	ctx = WithSession(ctx, models.Session{StaffID: "s1", Role: models.RolePicket})
	s, ok := Session(ctx)
	if !ok || s.StaffID != "s1" || s.Role != models.RolePicket {
		t.Fatalf("получили %#v", s)
	}
}

func TestDevice_EmptyIsAbsent(t *testing.T) {
	if _, ok := Device(WithDevice(context.Background(), "")); ok {
		t.Fatal("пустой device не считается заданным")
	}
	if d, ok := Device(WithDevice(context.Background(), "tg:42")); !ok || d != "tg:42" {
		t.Fatalf("d=%q ok=%v", d, ok)
	}
}

func TestWithDBTimeout_RespectsShorterParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	ctx, c2 := WithDBTimeout(parent)
	defer c2()
	dl, ok := ctx.Deadline()
	if !ok || time.Until(dl) > 200*time.Millisecond {
		t.Fatalf("ожидали дедлайн родителя, получили %v", dl)
	}
}
