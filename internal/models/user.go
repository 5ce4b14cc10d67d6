package models

import (
	"strings"
	"time"
)

// Role is stored exactly with this casing in the user document.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

// ParseRole maps a spreadsheet or provider value onto a Role, case-insensitively.
// Anything unrecognised becomes RoleStudent.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrator":
		return RoleAdmin
	case "teacher", "instructor":
		return RoleTeacher
	default:
		return RoleStudent
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// ArrayField names one of the append-only arrays of a UserRecord.
type ArrayField string

const (
	FieldMarks      ArrayField = "marks"
	FieldAttendance ArrayField = "attendance"
	FieldMsgs       ArrayField = "msgs"
	FieldFiles      ArrayField = "files"
)

func (f ArrayField) Valid() bool {
	switch f {
	case FieldMarks, FieldAttendance, FieldMsgs, FieldFiles:
		return true
	}
	return false
}

type Mark struct {
	Subject string  `json:"subject" firestore:"subject"`
	Score   float64 `json:"score" firestore:"score"`
}

type FileRef struct {
	Name string `json:"name" firestore:"name"`
	URL  string `json:"url" firestore:"url"`
}

// UserRecord is the profile document keyed by email.
type UserRecord struct {
	Email      string    `json:"email" firestore:"email"`
	Name       string    `json:"name" firestore:"name"`
	Role       Role      `json:"role" firestore:"role"`
	ClassGrade string    `json:"classGrade" firestore:"classGrade"`
	Section    string    `json:"section" firestore:"section"`
	Marks      []Mark    `json:"marks" firestore:"marks"`
	Attendance []string  `json:"attendance" firestore:"attendance"`
	Msgs       []string  `json:"msgs" firestore:"msgs"`
	Files      []FileRef `json:"files" firestore:"files"`
}

// NewUserRecord returns a profile with empty (non-nil) history arrays.
func NewUserRecord(email, name string, role Role, classGrade, section string) *UserRecord {
	return &UserRecord{
		Email:      email,
		Name:       name,
		Role:       role,
		ClassGrade: classGrade,
		Section:    section,
		Marks:      []Mark{},
		Attendance: []string{},
		Msgs:       []string{},
		Files:      []FileRef{},
	}
}

// Normalize replaces nil arrays with empty ones.
func (u *UserRecord) Normalize() {
	if u.Marks == nil {
		u.Marks = []Mark{}
	}
	if u.Attendance == nil {
		u.Attendance = []string{}
	}
	if u.Msgs == nil {
		u.Msgs = []string{}
	}
	if u.Files == nil {
		u.Files = []FileRef{}
	}
}

// DisplayName is name, then email, then "User".
func (u *UserRecord) DisplayName() string {
	if u == nil {
		return "User"
	}
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return "User"
}

// Identity is what the identity provider knows about a signed-in account.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type Session struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BlobHandle identifies an uploaded object.
type BlobHandle struct {
	Path        string `json:"path"`
	Bucket      string `json:"bucket,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}
