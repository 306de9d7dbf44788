// Package apiclient is the HTTP client for the daemon's dashboard and
// reader API. It handles token persistence so repeated CLI invocations
// stay logged in, and it doubles as the durable tier a reading session
// writes through.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"margin/internal/api"
	"margin/internal/beacon"
	"margin/internal/logging"
)

const defaultRequestTimeout = 30 * time.Second

// Client talks to the daemon API over HTTP with bearer-token auth.
type Client struct {
	baseURL   string
	http      *http.Client
	token     string
	tokenPath string
	beacon    *beacon.Dispatcher
	logger    *slog.Logger
}

// Options configures a Client.
type Options struct {
	// BaseURL is the daemon API root, e.g. "http://127.0.0.1:8765".
	BaseURL string
	// TokenPath is where the auth token is persisted between runs. Empty
	// disables persistence.
	TokenPath  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// New builds a Client and loads any previously persisted token.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      httpClient,
		tokenPath: opts.TokenPath,
		beacon:    beacon.New(nil, logging.NewComponentLogger(logger, "beacon")),
		logger:    logger,
	}
	c.loadToken()
	return c
}

// Authenticated reports whether the client holds a token. The token may
// still be rejected if the daemon restarted since it was issued.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// Login exchanges the password for a token and persists it.
func (c *Client) Login(ctx context.Context, password string) error {
	var resp api.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth", api.AuthRequest{Password: password}, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return c.saveToken()
}

// Logout revokes the token on the daemon and clears the persisted copy.
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		return nil
	}
	err := c.do(ctx, http.MethodDelete, "/api/auth", nil, nil)
	c.token = ""
	if c.tokenPath != "" {
		if removeErr := os.Remove(c.tokenPath); removeErr != nil && !os.IsNotExist(removeErr) {
			c.logger.Warn("unable to remove token file", logging.String("path", c.tokenPath), logging.Error(removeErr))
		}
	}
	return err
}

// Status fetches daemon status counts.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var resp api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddPaper registers a paper URL; the daemon resolves metadata inline.
func (c *Client) AddPaper(ctx context.Context, paperURL string) (*api.Paper, error) {
	var resp api.PaperResponse
	if err := c.do(ctx, http.MethodPost, "/api/papers", api.AddPaperRequest{URL: paperURL}, &resp); err != nil {
		return nil, err
	}
	return &resp.Paper, nil
}

// ListPapers returns papers, optionally filtered by status.
func (c *Client) ListPapers(ctx context.Context, statuses ...string) ([]api.Paper, error) {
	query := url.Values{}
	for _, status := range statuses {
		query.Add("status", status)
	}
	var resp api.PaperListResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/api/papers", query), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Papers, nil
}

// GetPaper fetches one paper by id.
func (c *Client) GetPaper(ctx context.Context, id string) (*api.Paper, error) {
	var resp api.PaperResponse
	if err := c.do(ctx, http.MethodGet, "/api/papers/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Paper, nil
}

// UpdatePaper applies a partial update and returns the updated record.
func (c *Client) UpdatePaper(ctx context.Context, id string, req api.UpdatePaperRequest) (*api.Paper, error) {
	var resp api.PaperResponse
	if err := c.do(ctx, http.MethodPatch, "/api/papers/"+url.PathEscape(id), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Paper, nil
}

// RefreshMetadata re-resolves a paper's URL server-side and fills in any
// metadata fields the record is still missing.
func (c *Client) RefreshMetadata(ctx context.Context, id string) (*api.Paper, error) {
	var resp api.PaperResponse
	if err := c.do(ctx, http.MethodPost, "/api/papers/"+url.PathEscape(id)+"/metadata", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Paper, nil
}

// DeletePaper removes a paper. Deleting an unknown id is not an error.
func (c *Client) DeletePaper(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/papers/"+url.PathEscape(id), nil, nil)
}

// ResolveMetadata runs the resolution chain for a URL without creating a
// paper record.
func (c *Client) ResolveMetadata(ctx context.Context, paperURL string) (*api.Metadata, error) {
	query := url.Values{"url": []string{paperURL}}
	var resp api.MetadataResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/api/metadata", query), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Metadata, nil
}

// FetchPDF downloads a document through the daemon proxy.
func (c *Client) FetchPDF(ctx context.Context, pdfURL string) ([]byte, error) {
	query := url.Values{"url": []string{pdfURL}}
	req, err := c.newRequest(ctx, http.MethodGet, withQuery("/api/pdf", query), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pdf body: %w", err)
	}
	return data, nil
}

// AddTask creates a todo entry. Empty date means today.
func (c *Client) AddTask(ctx context.Context, content, date, priority string) (*api.Task, error) {
	var resp api.TaskResponse
	req := api.AddTaskRequest{Content: content, Date: date, Priority: priority}
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// ListTasks returns tasks for a date. Empty date means today.
func (c *Client) ListTasks(ctx context.Context, date string) ([]api.Task, error) {
	query := url.Values{}
	if date != "" {
		query.Set("date", date)
	}
	var resp api.TaskListResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/api/tasks", query), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// SetTaskCompleted toggles a task's done state.
func (c *Client) SetTaskCompleted(ctx context.Context, id string, completed bool) error {
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), api.CompletedRequest{Completed: completed}, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// AddClip stores a clipboard snippet.
func (c *Client) AddClip(ctx context.Context, content string, label *string) (*api.Clip, error) {
	var resp api.ClipResponse
	if err := c.do(ctx, http.MethodPost, "/api/clips", api.AddClipRequest{Content: content, Label: label}, &resp); err != nil {
		return nil, err
	}
	return &resp.Clip, nil
}

// ListClips returns all stored clips, newest first.
func (c *Client) ListClips(ctx context.Context) ([]api.Clip, error) {
	var resp api.ClipListResponse
	if err := c.do(ctx, http.MethodGet, "/api/clips", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Clips, nil
}

// DeleteClip removes a clip.
func (c *Client) DeleteClip(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/clips/"+url.PathEscape(id), nil, nil)
}

// AddReminder creates a reminder the daemon sweeper will notify about.
func (c *Client) AddReminder(ctx context.Context, subject, reason, priority string) (*api.Reminder, error) {
	var resp api.ReminderResponse
	req := api.AddReminderRequest{Subject: subject, Reason: reason, Priority: priority}
	if err := c.do(ctx, http.MethodPost, "/api/reminders", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Reminder, nil
}

// ListReminders returns reminders, optionally only pending ones.
func (c *Client) ListReminders(ctx context.Context, pendingOnly bool) ([]api.Reminder, error) {
	query := url.Values{}
	if pendingOnly {
		query.Set("pending", "1")
	}
	var resp api.ReminderListResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/api/reminders", query), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reminders, nil
}

// SetReminderDone toggles a reminder's done state.
func (c *Client) SetReminderDone(ctx context.Context, id string, done bool) error {
	return c.do(ctx, http.MethodPatch, "/api/reminders/"+url.PathEscape(id), api.CompletedRequest{Completed: done}, nil)
}

// DeleteReminder removes a reminder.
func (c *Client) DeleteReminder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/reminders/"+url.PathEscape(id), nil, nil)
}

// AddGoal creates a goal.
func (c *Client) AddGoal(ctx context.Context, title string, description *string) (*api.Goal, error) {
	var resp api.GoalResponse
	if err := c.do(ctx, http.MethodPost, "/api/goals", api.AddGoalRequest{Title: title, Description: description}, &resp); err != nil {
		return nil, err
	}
	return &resp.Goal, nil
}

// ListGoals returns goals, optionally filtered by status.
func (c *Client) ListGoals(ctx context.Context, statuses ...string) ([]api.Goal, error) {
	query := url.Values{}
	for _, status := range statuses {
		query.Add("status", status)
	}
	var resp api.GoalListResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/api/goals", query), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Goals, nil
}

// CompleteGoal marks a goal achieved.
func (c *Client) CompleteGoal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/goals/"+url.PathEscape(id)+"/complete", nil, nil)
}

// DitchGoal abandons a goal with a reason.
func (c *Client) DitchGoal(ctx context.Context, id, reason string) error {
	return c.do(ctx, http.MethodPost, "/api/goals/"+url.PathEscape(id)+"/ditch", api.DitchGoalRequest{Reason: reason}, nil)
}

// DeleteGoal removes a goal.
func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/goals/"+url.PathEscape(id), nil, nil)
}

// SavePage persists a reading position to the paper record.
func (c *Client) SavePage(ctx context.Context, paperID string, page int) error {
	_, err := c.UpdatePaper(ctx, paperID, api.UpdatePaperRequest{CurrentPage: &page})
	return err
}

// SaveNotes persists outcome notes to the paper record.
func (c *Client) SaveNotes(ctx context.Context, paperID string, notes string) error {
	_, err := c.UpdatePaper(ctx, paperID, api.UpdatePaperRequest{Outcome: &notes})
	return err
}

// DispatchNotes fires the outcome beacon without waiting for a response.
// The caller is shutting down, so the unauthenticated beacon endpoint
// carries the write instead of a normal authed request.
func (c *Client) DispatchNotes(paperID string, notes string) {
	query := url.Values{"id": []string{paperID}}
	c.beacon.Send(c.baseURL+withQuery("/api/papers/outcome", query), api.OutcomePayload{Outcome: notes})
}

// FlushBeacon waits for in-flight beacon posts. Intended for process exit
// paths that can afford a short wait and for tests.
func (c *Client) FlushBeacon() {
	c.beacon.Flush()
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon: %s (%s)", payload.Error, resp.Status)
	}
	return fmt.Errorf("daemon returned %s", resp.Status)
}

func (c *Client) loadToken() {
	if c.tokenPath == "" {
		return
	}
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return
	}
	c.token = strings.TrimSpace(string(data))
}

func (c *Client) saveToken() error {
	if c.tokenPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.tokenPath), 0o755); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(c.tokenPath, []byte(c.token+"\n"), 0o600); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}
