// Command adduser создаёт учётную запись сотрудника (администратор или дежурный).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/auth"
	"github.com/Spok95/lapor-jamkos/internal/db"
	"github.com/Spok95/lapor-jamkos/internal/models"
)

func main() {
	_ = godotenv.Load()

	email := flag.String("email", "", "email сотрудника")
	password := flag.String("password", "", "пароль, минимум 8 символов")
	role := flag.String("role", "", "admin | picket (пусто — по email)")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL не задан")
	}

	ctx := context.Background()
	database, err := db.Open(ctx, dsn)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = database.Close() }()
	if err := db.Migrate(database); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// ключ подписи здесь не нужен: токены не выпускаются
	svc := auth.NewService(db.NewStore(database), "", "", 0, zap.NewNop())
	st, err := svc.Register(ctx, *email, *password, models.Role(*role))
	if err != nil {
		log.Fatalf("register: %v", err)
	}
	fmt.Printf("created %s (%s)\n", st.Email, st.EffectiveRole().Label())
}
