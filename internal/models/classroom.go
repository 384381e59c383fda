package models

import "time"

type Classroom struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Token     string    `json:"token" db:"token"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Report struct {
	ID        string    `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	// ClassID пустой, если класс уже удалён; ClassName тогда берётся из снимка.
	ClassID            *string `json:"class_id" db:"class_id"`
	ClassName          string  `json:"class_name" db:"class_name"`
	Status             Status  `json:"status" db:"status"`
	PicketName         *string `json:"picket_name" db:"picket_name"`
	MissingTeacherName *string `json:"missing_teacher_name" db:"missing_teacher_name"`
}

// Triage: данные одной обработки заявки дежурным.
type Triage struct {
	PicketName         string
	MissingTeacherName string
	Status             Status
}

type ChangeOp string

const (
	ChangeInsert ChangeOp = "INSERT"
	ChangeUpdate ChangeOp = "UPDATE"
	// ChangeResync: канал уведомлений переподключился, часть событий могла потеряться.
	ChangeResync ChangeOp = "RESYNC"
)

// ReportChange: уведомление об изменении в таблице заявок.
type ReportChange struct {
	Op       ChangeOp `json:"op"`
	ReportID string   `json:"id"`
}
