package models

import (
	"database/sql/driver"
	"fmt"
)

// Status задаёт статус жизненного цикла заявки. Закрытое множество: любые другие
// значения отвергаются на входе (ParseStatus, Scan).
type Status string

const (
	StatusPending           Status = "pending"
	StatusContactingTeacher Status = "contacting_teacher"
	StatusGivingTask        Status = "giving_task"
	StatusResolved          Status = "resolved"
)

// AllStatuses: в порядке продвижения по процессу.
var AllStatuses = []Status{StatusPending, StatusContactingTeacher, StatusGivingTask, StatusResolved}

// TriageStatuses: куда можно перевести заявку при обработке. pending сюда не входит.
var TriageStatuses = []Status{StatusContactingTeacher, StatusGivingTask, StatusResolved}

func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown report status %q", s)
}

// ParseTriageStatus принимает только целевые статусы обработки.
func ParseTriageStatus(s string) (Status, error) {
	for _, st := range TriageStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", &ValidationError{Field: "status", Msg: "Pilih tindakan yang valid"}
}

// Bucket: единая классификация для счётчиков, фильтров и бейджей.
func (s Status) Bucket() Bucket {
	switch s {
	case StatusPending:
		return BucketUnhandled
	case StatusContactingTeacher:
		return BucketInProgress
	case StatusGivingTask, StatusResolved:
		return BucketClosed
	}
	panic(fmt.Sprintf("models: unclassified status %q", string(s)))
}

func (s Status) IsTerminal() bool {
	return s == StatusGivingTask || s == StatusResolved
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Menunggu"
	case StatusContactingTeacher:
		return "Menghubungi Guru"
	case StatusGivingTask:
		return "Memberi Tugas (Selesai)"
	case StatusResolved:
		return "Selesai"
	}
	return string(s)
}

// Scan не даёт неизвестному статусу из БД проникнуть в модель.
func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("status: unsupported type %T", src)
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func (s Status) Value() (driver.Value, error) {
	if _, err := ParseStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}
