package daemon

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"margin/internal/api"
	"margin/internal/logging"
	"margin/internal/store"
)

func (s *apiServer) handlePapers(w http.ResponseWriter, r *http.Request) {
	papers := s.daemon.Papers()
	switch r.Method {
	case http.MethodGet:
		var statuses []string
		for _, value := range r.URL.Query()["status"] {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				statuses = append(statuses, trimmed)
			}
		}
		items, err := papers.List(r.Context(), statuses...)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.PaperListResponse{Papers: items})
	case http.MethodPost:
		var req api.AddPaperRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		paper, err := papers.Add(r.Context(), req.URL)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.PaperResponse{Paper: *paper})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handlePaperItem routes /api/papers/{id} and /api/papers/{id}/metadata.
func (s *apiServer) handlePaperItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/papers/")
	segments := strings.Split(rest, "/")
	if rest == "" || len(segments) > 2 || segments[0] == "" {
		s.writeError(w, http.StatusNotFound, "paper not found")
		return
	}
	id := segments[0]
	papers := s.daemon.Papers()

	if len(segments) == 2 {
		if segments[1] != "metadata" {
			s.writeError(w, http.StatusNotFound, "paper not found")
			return
		}
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		paper, err := papers.RefreshMetadata(r.Context(), id)
		if err != nil {
			s.writePaperError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.PaperResponse{Paper: *paper})
		return
	}

	switch r.Method {
	case http.MethodGet:
		paper, err := papers.Describe(r.Context(), id)
		if err != nil {
			s.writePaperError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.PaperResponse{Paper: *paper})
	case http.MethodPatch:
		var req api.UpdatePaperRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		paper, err := papers.Update(r.Context(), id, req)
		if err != nil {
			s.writePaperError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.PaperResponse{Paper: *paper})
	case http.MethodDelete:
		if err := papers.Remove(r.Context(), id); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) writePaperError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "paper not found")
	case err != nil:
		s.writeError(w, http.StatusBadRequest, err.Error())
	}
}

// handleOutcome accepts the fire-and-forget outcome write from a closing
// reader session. The sender may be gone before the response is written,
// so the handler does its work and answers 200 regardless of whether
// anyone is listening.
func (s *apiServer) handleOutcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	var payload api.OutcomePayload
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	outcome := payload.Outcome
	err := s.daemon.Store().UpdatePaper(r.Context(), id, store.PaperUpdate{Outcome: &outcome})
	if err != nil {
		s.writePaperError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	meta := s.daemon.Papers().ResolveMetadata(r.Context(), target)
	s.writeJSON(w, http.StatusOK, api.MetadataResponse{Metadata: meta})
}

// handlePDF fetches a remote PDF on the client's behalf so the reader can
// load documents whose origins would refuse it directly.
func (s *apiServer) handlePDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		s.writeError(w, http.StatusBadRequest, "url must be http or https")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.proxyClient.Do(req)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The upstream status carries meaning for the client (404 for a
		// withdrawn paper, 403 for a paywall), so it passes through as-is.
		s.writeError(w, resp.StatusCode, "upstream returned "+resp.Status)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	if length := resp.Header.Get("Content-Length"); length != "" {
		w.Header().Set("Content-Length", length)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.log().Debug("pdf proxy copy interrupted",
			logging.String("url", target),
			logging.Error(err))
	}
}
