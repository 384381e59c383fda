package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

// Имя класса: живое, если класс ещё существует, иначе снимок на момент заявки.
const reportSelect = `
	SELECT r.id, r.created_at, r.class_id, COALESCE(c.name, r.class_name),
	       r.status, r.picket_name, r.missing_teacher_name
	FROM reports r
	LEFT JOIN classes c ON c.id = r.class_id`

func scanReport(row interface{ Scan(...any) error }) (models.Report, error) {
	var (
		r       models.Report
		classID sql.NullString
		picket  sql.NullString
		teacher sql.NullString
	)
	if err := row.Scan(&r.ID, &r.CreatedAt, &classID, &r.ClassName, &r.Status, &picket, &teacher); err != nil {
		return models.Report{}, err
	}
	if classID.Valid {
		r.ClassID = &classID.String
	}
	if picket.Valid {
		r.PicketName = &picket.String
	}
	if teacher.Valid {
		r.MissingTeacherName = &teacher.String
	}
	return r, nil
}

// InsertReport создаёт заявку в статусе pending без данных обработки.
// ErrNotFound: если класс исчез между проверкой токена и вставкой.
func InsertReport(ctx context.Context, database *sql.DB, classID string) (models.Report, error) {
	row := database.QueryRowContext(ctx, `
		WITH ins AS (
			INSERT INTO reports (class_id, class_name)
			SELECT id, name FROM classes WHERE id = $1
			RETURNING id, created_at, class_id, class_name, status, picket_name, missing_teacher_name
		)
		SELECT id, created_at, class_id, class_name, status, picket_name, missing_teacher_name FROM ins`, classID)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isBadUUID(err) {
			return models.Report{}, models.ErrNotFound
		}
		return models.Report{}, err
	}
	return r, nil
}

func GetReport(ctx context.Context, database *sql.DB, id string) (*models.Report, error) {
	r, err := scanReport(database.QueryRowContext(ctx, reportSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isBadUUID(err) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// UpdateTriage атомарно ставит статус и перезаписывает оба имени.
// Конкурентные обработки одной заявки: побеждает последняя запись.
func UpdateTriage(ctx context.Context, database *sql.DB, id string, t models.Triage) (models.Report, error) {
	if t.Status == models.StatusPending {
		return models.Report{}, fmt.Errorf("update triage: refusing to move report %s back to pending", id)
	}
	row := database.QueryRowContext(ctx, `
		WITH u AS (
			UPDATE reports
			SET status = $2, picket_name = $3, missing_teacher_name = $4
			WHERE id = $1
			RETURNING id, created_at, class_id, class_name, status, picket_name, missing_teacher_name
		)
		SELECT u.id, u.created_at, u.class_id, COALESCE(c.name, u.class_name),
		       u.status, u.picket_name, u.missing_teacher_name
		FROM u LEFT JOIN classes c ON c.id = u.class_id`,
		id, t.Status, t.PicketName, t.MissingTeacherName)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isBadUUID(err) {
			return models.Report{}, models.ErrNotFound
		}
		return models.Report{}, err
	}
	return r, nil
}

// ReportQuery содержит необязательные фильтры выборки. Окно полуоткрытое: [From, To).
type ReportQuery struct {
	From     *time.Time
	To       *time.Time
	Statuses []models.Status
	Limit    int
}

// ListReports: новые сверху; при равном времени порядок стабилен по id.
func ListReports(ctx context.Context, database *sql.DB, q ReportQuery) ([]models.Report, error) {
	query := reportSelect + ` WHERE true`
	args := []any{}
	idx := 1
	if q.From != nil {
		query += fmt.Sprintf(" AND r.created_at >= $%d", idx)
		args = append(args, q.From.UTC())
		idx++
	}
	if q.To != nil {
		query += fmt.Sprintf(" AND r.created_at < $%d", idx)
		args = append(args, q.To.UTC())
		idx++
	}
	if len(q.Statuses) > 0 {
		ss := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			ss = append(ss, string(s))
		}
		query += fmt.Sprintf(" AND r.status = ANY($%d::text[])", idx)
		args = append(args, pq.Array(ss))
		idx++
	}
	query += " ORDER BY r.created_at DESC, r.id"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, q.Limit)
	}

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountReports: режим "только количество"; nil-границы не ограничивают.
func CountReports(ctx context.Context, database *sql.DB, from, to *time.Time) (int, error) {
	query := `SELECT count(*) FROM reports WHERE true`
	args := []any{}
	if from != nil {
		args = append(args, from.UTC())
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.UTC())
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	var n int
	err := database.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
