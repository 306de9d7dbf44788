package api

import (
	"time"

	"margin/internal/metadata"
	"margin/internal/store"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromStorePaper converts a store record into its DTO.
func FromStorePaper(p *store.Paper) Paper {
	if p == nil {
		return Paper{}
	}
	return Paper{
		ID:          p.ID,
		URL:         p.URL,
		Title:       p.Title,
		Authors:     p.Authors,
		Abstract:    p.Abstract,
		Status:      string(p.Status),
		Outcome:     p.Outcome,
		CurrentPage: p.CurrentPage,
		PageCount:   p.PageCount,
		CreatedAt:   formatTime(p.CreatedAt),
	}
}

// FromStorePapers converts a slice of store records.
func FromStorePapers(papers []*store.Paper) []Paper {
	out := make([]Paper, 0, len(papers))
	for _, p := range papers {
		out = append(out, FromStorePaper(p))
	}
	return out
}

// FromMetadata converts a resolver result into its DTO.
func FromMetadata(m metadata.Metadata) Metadata {
	return Metadata{
		Title:    m.Title,
		Authors:  m.Authors,
		Abstract: m.Abstract,
	}
}

// FromStoreTask converts a store record into its DTO.
func FromStoreTask(t *store.Task) Task {
	if t == nil {
		return Task{}
	}
	return Task{
		ID:        t.ID,
		Content:   t.Content,
		Completed: t.Completed,
		Date:      t.Date,
		Priority:  string(t.Priority),
		CreatedAt: formatTime(t.CreatedAt),
	}
}

// FromStoreTasks converts a slice of store records.
func FromStoreTasks(tasks []*store.Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, FromStoreTask(t))
	}
	return out
}

// FromStoreClip converts a store record into its DTO.
func FromStoreClip(c *store.Clip) Clip {
	if c == nil {
		return Clip{}
	}
	return Clip{
		ID:        c.ID,
		Content:   c.Content,
		Label:     c.Label,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

// FromStoreClips converts a slice of store records.
func FromStoreClips(clips []*store.Clip) []Clip {
	out := make([]Clip, 0, len(clips))
	for _, c := range clips {
		out = append(out, FromStoreClip(c))
	}
	return out
}

// FromStoreReminder converts a store record into its DTO.
func FromStoreReminder(r *store.Reminder) Reminder {
	if r == nil {
		return Reminder{}
	}
	return Reminder{
		ID:        r.ID,
		Subject:   r.Subject,
		Reason:    r.Reason,
		Priority:  string(r.Priority),
		Done:      r.Done,
		CreatedAt: formatTime(r.CreatedAt),
	}
}

// FromStoreReminders converts a slice of store records.
func FromStoreReminders(reminders []*store.Reminder) []Reminder {
	out := make([]Reminder, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, FromStoreReminder(r))
	}
	return out
}

// FromStoreGoal converts a store record into its DTO.
func FromStoreGoal(g *store.Goal) Goal {
	if g == nil {
		return Goal{}
	}
	out := Goal{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Status:      string(g.Status),
		DitchReason: g.DitchReason,
		CreatedAt:   formatTime(g.CreatedAt),
	}
	if g.CompletedAt != nil {
		out.CompletedAt = formatTime(*g.CompletedAt)
	}
	return out
}

// FromStoreGoals converts a slice of store records.
func FromStoreGoals(goals []*store.Goal) []Goal {
	out := make([]Goal, 0, len(goals))
	for _, g := range goals {
		out = append(out, FromStoreGoal(g))
	}
	return out
}
