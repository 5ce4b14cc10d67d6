package models

import "strconv"

// PassingScore is the lowest score rendered as Pass.
const PassingScore = 35.0

type AuthStatus string

const (
	StatusUnauthenticated AuthStatus = "Unauthenticated"
	StatusAuthenticated   AuthStatus = "Authenticated"
)

type Panel string

const (
	PanelAdmin   Panel = "admin"
	PanelTeacher Panel = "teacher"
	PanelStudent Panel = "student"
)

// PanelFor returns the single panel visible to a role.
func PanelFor(role Role) Panel {
	switch role {
	case RoleAdmin:
		return PanelAdmin
	case RoleTeacher:
		return PanelTeacher
	default:
		return PanelStudent
	}
}

// AppState is everything the dashboard renders for the current session.
type AppState struct {
	Status          AuthStatus        `json:"status"`
	User            *UserRecord       `json:"user,omitempty"`
	DisplayName     string            `json:"displayName,omitempty"`
	Panel           Panel             `json:"panel,omitempty"`
	VisibleNav      []Panel           `json:"visibleNav"`
	ActiveSection   string            `json:"activeSection,omitempty"`
	ProfileFallback bool              `json:"profileFallback,omitempty"`
	Student         *StudentDashboard `json:"student,omitempty"`
}

func UnauthenticatedState() *AppState {
	return &AppState{
		Status:     StatusUnauthenticated,
		VisibleNav: []Panel{},
	}
}

type StudentDashboard struct {
	Files    []FileRef `json:"files"`
	Messages []string  `json:"messages"`
	Marks    []MarkRow `json:"marks"`
}

type MarkRow struct {
	Subject string  `json:"subject"`
	Score   float64 `json:"score"`
	Result  string  `json:"result"`
}

func NewMarkRow(m Mark) MarkRow {
	result := "Fail"
	if m.Score >= PassingScore {
		result = "Pass"
	}
	return MarkRow{Subject: m.Subject, Score: m.Score, Result: result}
}

// Cells renders the row as subject | score | result.
func (r MarkRow) Cells() []string {
	return []string{r.Subject, strconv.FormatFloat(r.Score, 'f', -1, 64), r.Result}
}

// RosterEntry is a student row in the teacher's class list, keyed by email.
type RosterEntry struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	ClassGrade string `json:"classGrade"`
	Section    string `json:"section"`
}

type ImportRowError struct {
	Row   int    `json:"row"`
	Email string `json:"email"`
	Error string `json:"error"`
}

type ImportResult struct {
	Total   int              `json:"total"`
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Skipped int              `json:"skipped"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// FanoutResult reports a per-recipient write; failures are never rolled back.
type FanoutResult struct {
	Matched int      `json:"matched"`
	Updated int      `json:"updated"`
	Failed  []string `json:"failed"`
}

type AssignmentResult struct {
	File   FileRef      `json:"file"`
	Fanout FanoutResult `json:"fanout"`
}

// DashboardFor renders the student view of u. A nil record yields an empty dashboard.
func DashboardFor(u *UserRecord) *StudentDashboard {
	d := &StudentDashboard{
		Files:    []FileRef{},
		Messages: []string{},
		Marks:    []MarkRow{},
	}
	if u == nil {
		return d
	}

	d.Files = append(d.Files, u.Files...)
	// newest first
	for i := len(u.Msgs) - 1; i >= 0; i-- {
		d.Messages = append(d.Messages, u.Msgs[i])
	}
	for _, m := range u.Marks {
		d.Marks = append(d.Marks, NewMarkRow(m))
	}
	return d
}
