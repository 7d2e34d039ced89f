package models

import "time"

type OutpassStatus string

const (
	OutpassStatusPending  OutpassStatus = "pending"
	OutpassStatusApproved OutpassStatus = "approved"
	OutpassStatusRejected OutpassStatus = "rejected"
)

// Outpass is the domain event source: a student's leave request moving
// through the approval workflow.
type Outpass struct {
	ID              string        `json:"id" db:"id"`
	StudentID       string        `json:"student_id" db:"student_id"`
	StudentUsername string        `json:"student_username" db:"student_username"`
	StudentName     string        `json:"student_name" db:"student_name"`
	StudentPhone    string        `json:"student_phone,omitempty" db:"student_phone"`
	MentorID        string        `json:"mentor_id,omitempty" db:"mentor_id"`
	MentorName      string        `json:"mentor_name" db:"mentor_name"`
	MentorPhone     string        `json:"mentor_phone,omitempty" db:"mentor_phone"`
	FromDate        string        `json:"from_date" db:"from_date"`
	ToDate          string        `json:"to_date" db:"to_date"`
	Reason          string        `json:"reason" db:"reason"`
	Status          OutpassStatus `json:"status" db:"status"`
	MentorComments  string        `json:"mentor_comments,omitempty" db:"mentor_comments"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}
