package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Paper describes a tracked paper in a transport-friendly format. Pointer
// fields serialize as null when the value is unknown.
type Paper struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Title       *string `json:"title"`
	Authors     *string `json:"authors"`
	Abstract    *string `json:"abstract"`
	Status      string  `json:"status"`
	Outcome     *string `json:"outcome"`
	CurrentPage *int    `json:"currentPage"`
	PageCount   *int    `json:"pageCount"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// Metadata carries resolved bibliographic fields for a URL.
type Metadata struct {
	Title    *string `json:"title"`
	Authors  *string `json:"authors"`
	Abstract *string `json:"abstract"`
}

// Task describes one dashboard todo entry.
type Task struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
	Priority  string `json:"priority"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Clip describes one clipboard snippet.
type Clip struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	Label     *string `json:"label"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// Reminder describes one email-to-send note.
type Reminder struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Reason    string `json:"reason"`
	Priority  string `json:"priority"`
	Done      bool   `json:"done"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Goal describes one long-running personal goal.
type Goal struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	DitchReason *string `json:"ditchReason"`
	CompletedAt string  `json:"completedAt,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	UptimeSecs   int64          `json:"uptimeSecs"`
	DatabasePath string         `json:"databasePath"`
	LockFilePath string         `json:"lockFilePath"`
	Counts       map[string]int `json:"counts"`
}

// AuthRequest carries the dashboard password.
type AuthRequest struct {
	Password string `json:"password"`
}

// AuthResponse returns the bearer token issued for a session. Success is
// false when the password was rejected.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

// AddPaperRequest creates a paper from a URL; metadata resolution runs
// server-side.
type AddPaperRequest struct {
	URL string `json:"url"`
}

// UpdatePaperRequest is a partial update: absent fields are untouched.
type UpdatePaperRequest struct {
	Title       *string `json:"title"`
	Authors     *string `json:"authors"`
	Abstract    *string `json:"abstract"`
	Status      *string `json:"status"`
	Outcome     *string `json:"outcome"`
	CurrentPage *int    `json:"currentPage"`
	PageCount   *int    `json:"pageCount"`
}

// OutcomePayload is the fire-and-forget body accepted by the outcome
// beacon endpoint.
type OutcomePayload struct {
	Outcome string `json:"outcome"`
}

// AddTaskRequest creates a todo entry. An empty date means today.
type AddTaskRequest struct {
	Content  string `json:"content"`
	Date     string `json:"date"`
	Priority string `json:"priority"`
}

// AddClipRequest creates a clipboard snippet.
type AddClipRequest struct {
	Content string  `json:"content"`
	Label   *string `json:"label"`
}

// AddReminderRequest creates an email reminder.
type AddReminderRequest struct {
	Subject  string `json:"subject"`
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
}

// AddGoalRequest creates a goal.
type AddGoalRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// DitchGoalRequest abandons a goal with a reason.
type DitchGoalRequest struct {
	Reason string `json:"reason"`
}

// CompletedRequest toggles a task's or reminder's done state.
type CompletedRequest struct {
	Completed bool `json:"completed"`
}

// PaperListResponse wraps a collection of papers.
type PaperListResponse struct {
	Papers []Paper `json:"papers"`
}

// PaperResponse wraps a single paper.
type PaperResponse struct {
	Paper Paper `json:"paper"`
}

// MetadataResponse wraps a resolved metadata result.
type MetadataResponse struct {
	Metadata Metadata `json:"metadata"`
}

// TaskListResponse wraps a collection of tasks.
type TaskListResponse struct {
	Tasks []Task `json:"tasks"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task Task `json:"task"`
}

// ClipListResponse wraps a collection of clips.
type ClipListResponse struct {
	Clips []Clip `json:"clips"`
}

// ClipResponse wraps a single clip.
type ClipResponse struct {
	Clip Clip `json:"clip"`
}

// ReminderListResponse wraps a collection of reminders.
type ReminderListResponse struct {
	Reminders []Reminder `json:"reminders"`
}

// ReminderResponse wraps a single reminder.
type ReminderResponse struct {
	Reminder Reminder `json:"reminder"`
}

// GoalListResponse wraps a collection of goals.
type GoalListResponse struct {
	Goals []Goal `json:"goals"`
}

// GoalResponse wraps a single goal.
type GoalResponse struct {
	Goal Goal `json:"goal"`
}
