package store

import "time"

// PaperStatus represents the reading lifecycle of a paper.
type PaperStatus string

const (
	StatusToRead  PaperStatus = "to_read"
	StatusReading PaperStatus = "reading"
	StatusRead    PaperStatus = "read"
)

// ValidPaperStatus reports whether s is a known paper status.
func ValidPaperStatus(s PaperStatus) bool {
	switch s {
	case StatusToRead, StatusReading, StatusRead:
		return true
	}
	return false
}

// Priority is shared by tasks and reminders.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// GoalStatus represents the lifecycle of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalDitched   GoalStatus = "ditched"
)

// ValidGoalStatus reports whether s is a known goal status.
func ValidGoalStatus(s GoalStatus) bool {
	switch s {
	case GoalActive, GoalCompleted, GoalDitched:
		return true
	}
	return false
}

// Paper is the durable record of one tracked research paper. Nil
// pointer fields mean unknown, not empty: the metadata resolver only
// fills fields it actually derived, and a paper that has never been
// opened has no current page.
type Paper struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	Title       *string     `json:"title"`
	Authors     *string     `json:"authors"`
	Abstract    *string     `json:"abstract"`
	Status      PaperStatus `json:"status"`
	Outcome     *string     `json:"outcome"`
	CurrentPage *int        `json:"current_page"`
	PageCount   *int        `json:"page_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

// PaperUpdate describes a partial update: only non-nil fields are
// written.
type PaperUpdate struct {
	Title       *string
	Authors     *string
	Abstract    *string
	Status      *PaperStatus
	Outcome     *string
	CurrentPage *int
	PageCount   *int
}

// Task is one dashboard todo entry, grouped by day.
type Task struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Completed bool      `json:"completed"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// Clip is one clipboard snippet.
type Clip struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Label     *string   `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// Reminder is one email-to-send note.
type Reminder struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Reason    string    `json:"reason"`
	Priority  Priority  `json:"priority"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// Goal is one long-running personal goal.
type Goal struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      GoalStatus `json:"status"`
	DitchReason *string    `json:"ditch_reason"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}
