package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PUBLIC_BASE_URL", "https://jamkos.sekolah.id/")
	t.Setenv("STAFF_CHAT_IDS", "11, 22")
	t.Setenv("SESSION_TTL", "garbage")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PublicBaseURL != "https://jamkos.sekolah.id" {
		t.Fatalf("хвостовой слэш должен срезаться: %q", cfg.PublicBaseURL)
	}
	if len(cfg.StaffChatIDs) != 2 || cfg.StaffChatIDs[1] != 22 {
		t.Fatalf("chat ids: %v", cfg.StaffChatIDs)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("битое значение должно давать дефолт, получили %s", cfg.SessionTTL)
	}
	if cfg.PrefsBackend != "memory" || cfg.RecentLimit != 4 {
		t.Fatalf("дефолты: %+v", cfg)
	}
}

func TestLoad_BadInputs(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("JWT_SECRET", "s")

	t.Run("bad_chat_id", func(t *testing.T) {
		t.Setenv("STAFF_CHAT_IDS", "12,abc")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку парсинга id")
		}
	})
	t.Run("bad_prefs_backend", func(t *testing.T) {
		t.Setenv("PREFS_BACKEND", "memcached")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку для неизвестного backend")
		}
	})
}

func TestLoad_MissingRequiredPanics(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	defer func() {
		if recover() == nil {
			t.Fatal("ожидали panic без DATABASE_URL")
		}
	}()
	_, _ = Load()
}
