package daemon

import (
	"errors"
	"net/http"
	"strings"

	"margin/internal/api"
	"margin/internal/store"
)

func (s *apiServer) writeStoreError(w http.ResponseWriter, err error, kind string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, kind+" not found")
	case err != nil:
		s.writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *apiServer) handleTasks(w http.ResponseWriter, r *http.Request) {
	st := s.daemon.Store()
	switch r.Method {
	case http.MethodGet:
		tasks, err := st.ListTasks(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.TaskListResponse{Tasks: api.FromStoreTasks(tasks)})
	case http.MethodPost:
		var req api.AddTaskRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		task, err := st.InsertTask(r.Context(), req.Content, req.Date, store.Priority(req.Priority))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.TaskResponse{Task: api.FromStoreTask(task)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleTaskItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r.URL.Path, "/api/tasks/")
	if !ok {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	st := s.daemon.Store()
	switch r.Method {
	case http.MethodPatch:
		var req api.CompletedRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := st.SetTaskCompleted(r.Context(), id, req.Completed); err != nil {
			s.writeStoreError(w, err, "task")
			return
		}
		task, err := st.GetTask(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err, "task")
			return
		}
		s.writeJSON(w, http.StatusOK, api.TaskResponse{Task: api.FromStoreTask(task)})
	case http.MethodDelete:
		if err := st.DeleteTask(r.Context(), id); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleClips(w http.ResponseWriter, r *http.Request) {
	st := s.daemon.Store()
	switch r.Method {
	case http.MethodGet:
		clips, err := st.ListClips(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.ClipListResponse{Clips: api.FromStoreClips(clips)})
	case http.MethodPost:
		var req api.AddClipRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		clip, err := st.InsertClip(r.Context(), req.Content, req.Label)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.ClipResponse{Clip: api.FromStoreClip(clip)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleClipItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r.URL.Path, "/api/clips/")
	if !ok {
		s.writeError(w, http.StatusNotFound, "clip not found")
		return
	}
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.daemon.Store().DeleteClip(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) handleReminders(w http.ResponseWriter, r *http.Request) {
	st := s.daemon.Store()
	switch r.Method {
	case http.MethodGet:
		pendingOnly := r.URL.Query().Get("pending") == "1"
		reminders, err := st.ListReminders(r.Context(), pendingOnly)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.ReminderListResponse{Reminders: api.FromStoreReminders(reminders)})
	case http.MethodPost:
		var req api.AddReminderRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		reminder, err := st.InsertReminder(r.Context(), req.Subject, req.Reason, store.Priority(req.Priority))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.ReminderResponse{Reminder: api.FromStoreReminder(reminder)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleReminderItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r.URL.Path, "/api/reminders/")
	if !ok {
		s.writeError(w, http.StatusNotFound, "reminder not found")
		return
	}
	st := s.daemon.Store()
	switch r.Method {
	case http.MethodPatch:
		var req api.CompletedRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := st.SetReminderDone(r.Context(), id, req.Completed); err != nil {
			s.writeStoreError(w, err, "reminder")
			return
		}
		reminder, err := st.GetReminder(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err, "reminder")
			return
		}
		s.writeJSON(w, http.StatusOK, api.ReminderResponse{Reminder: api.FromStoreReminder(reminder)})
	case http.MethodDelete:
		if err := st.DeleteReminder(r.Context(), id); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleGoals(w http.ResponseWriter, r *http.Request) {
	st := s.daemon.Store()
	switch r.Method {
	case http.MethodGet:
		var statuses []store.GoalStatus
		for _, value := range r.URL.Query()["status"] {
			trimmed := store.GoalStatus(strings.TrimSpace(value))
			if trimmed == "" {
				continue
			}
			if !store.ValidGoalStatus(trimmed) {
				s.writeError(w, http.StatusBadRequest, "unknown goal status: "+string(trimmed))
				return
			}
			statuses = append(statuses, trimmed)
		}
		goals, err := st.ListGoals(r.Context(), statuses...)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.GoalListResponse{Goals: api.FromStoreGoals(goals)})
	case http.MethodPost:
		var req api.AddGoalRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		goal, err := st.InsertGoal(r.Context(), req.Title, req.Description)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.GoalResponse{Goal: api.FromStoreGoal(goal)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleGoalItem routes /api/goals/{id}, /api/goals/{id}/complete and
// /api/goals/{id}/ditch.
func (s *apiServer) handleGoalItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/goals/")
	segments := strings.Split(rest, "/")
	if rest == "" || len(segments) > 2 || segments[0] == "" {
		s.writeError(w, http.StatusNotFound, "goal not found")
		return
	}
	id := segments[0]
	st := s.daemon.Store()

	if len(segments) == 2 {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		switch segments[1] {
		case "complete":
			if err := st.CompleteGoal(r.Context(), id); err != nil {
				s.writeStoreError(w, err, "goal")
				return
			}
		case "ditch":
			var req api.DitchGoalRequest
			if err := decodeJSON(r, &req); err != nil {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			if err := st.DitchGoal(r.Context(), id, req.Reason); err != nil {
				s.writeStoreError(w, err, "goal")
				return
			}
		default:
			s.writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		goal, err := st.GetGoal(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err, "goal")
			return
		}
		s.writeJSON(w, http.StatusOK, api.GoalResponse{Goal: api.FromStoreGoal(goal)})
		return
	}

	switch r.Method {
	case http.MethodGet:
		goal, err := st.GetGoal(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err, "goal")
			return
		}
		s.writeJSON(w, http.StatusOK, api.GoalResponse{Goal: api.FromStoreGoal(goal)})
	case http.MethodDelete:
		if err := st.DeleteGoal(r.Context(), id); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
