package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/benvon/slotfinder/internal/models"
)

const (
	// DefaultBaseURL is the Todoist REST v2 root
	DefaultBaseURL = "https://api.todoist.com/rest/v2"
	// DefaultTimeout bounds a single API call
	DefaultTimeout = 15 * time.Second

	maxErrorBody = 512
)

// Client talks to the Todoist REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client authenticating with a personal API token
func NewClient(token, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	bearer := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   http.DefaultTransport,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(bearer,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "todoist " + r.Method + " " + r.URL.Path
				}),
			),
		},
	}
}

// ListTasks returns active tasks, optionally restricted to one project
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]models.TaskRecord, error) {
	query := url.Values{}
	if projectID != "" {
		query.Set("project_id", projectID)
	}
	var tasks []models.TaskRecord
	if err := c.do(ctx, http.MethodGet, "/tasks", query, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListProjects returns every project
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListSections returns every section
func (c *Client) ListSections(ctx context.Context) ([]models.Section, error) {
	var sections []models.Section
	if err := c.do(ctx, http.MethodGet, "/sections", nil, nil, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// ListLabels returns every personal label
func (c *Client) ListLabels(ctx context.Context) ([]models.Label, error) {
	var labels []models.Label
	if err := c.do(ctx, http.MethodGet, "/labels", nil, nil, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// LoadDirectory fetches projects, sections and labels concurrently
func (c *Client) LoadDirectory(ctx context.Context) (*models.Directory, error) {
	var (
		projects []models.Project
		sections []models.Section
		labels   []models.Label
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = c.ListProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sections, err = c.ListSections(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		labels, err = c.ListLabels(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load directory: %w", err)
	}

	return models.NewDirectory(projects, sections, labels), nil
}

// CreateProject creates a project by name
func (c *Client) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, map[string]string{"name": name}, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateSection creates a section inside a project
func (c *Client) CreateSection(ctx context.Context, projectID, name string) (*models.Section, error) {
	body := map[string]string{"project_id": projectID, "name": name}
	var section models.Section
	if err := c.do(ctx, http.MethodPost, "/sections", nil, body, &section); err != nil {
		return nil, err
	}
	return &section, nil
}

// CreateLabel creates a personal label
func (c *Client) CreateLabel(ctx context.Context, name string) (*models.Label, error) {
	var label models.Label
	if err := c.do(ctx, http.MethodPost, "/labels", nil, map[string]string{"name": name}, &label); err != nil {
		return nil, err
	}
	return &label, nil
}

// CreateTask creates a task
func (c *Client) CreateTask(ctx context.Context, draft models.TaskDraft) (*models.TaskRecord, error) {
	var task models.TaskRecord
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, draft, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task by id
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(taskID), nil, nil, nil)
}

// Ping checks that the API is reachable and the token is accepted
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListProjects(ctx)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
