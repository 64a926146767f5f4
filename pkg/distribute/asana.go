package distribute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

// AsanaConfig configures the task destination.
type AsanaConfig struct {
	APIBaseURL  string
	PAT         string
	WorkspaceID string
	ProjectID   string
	Timeout     time.Duration
}

// CredentialState classifies the outcome of an Asana credential check.
type CredentialState string

const (
	CredentialValid    CredentialState = "valid"
	CredentialInvalid  CredentialState = "invalid"
	CredentialNotFound CredentialState = "not_found"
)

// AsanaAdapter creates one Asana task per action item, resolving assignee
// names against the workspace user list.
type AsanaAdapter struct {
	cfg    AsanaConfig
	client *http.Client
	logger logging.Logger
}

// NewAsanaAdapter creates an AsanaAdapter.
func NewAsanaAdapter(cfg AsanaConfig, logger logging.Logger) *AsanaAdapter {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://app.asana.com/api/1.0"
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AsanaAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (a *AsanaAdapter) Name() string { return "asana" }

type asanaUser struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

type asanaTaskData struct {
	Name     string   `json:"name"`
	Notes    string   `json:"notes"`
	Projects []string `json:"projects"`
	Assignee string   `json:"assignee,omitempty"`
}

// Distribute creates a task per action item. Every item is attempted even when
// earlier ones fail; per-item outcomes land in Result.Items. Unresolvable
// assignees leave the task unassigned rather than failing the destination.
func (a *AsanaAdapter) Distribute(ctx context.Context, rec *analyze.Record) (*Result, error) {
	if a.cfg.PAT == "" {
		return nil, fmt.Errorf("%w: asana PAT not configured", rcerrors.ErrUnauthorized)
	}
	if a.cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: asana project not configured", rcerrors.ErrValidation)
	}

	switch state, err := a.ValidateCredentials(ctx); {
	case err != nil:
		a.logger.Warn("asana credential check inconclusive, attempting delivery anyway", logging.Err(err))
	case state == CredentialInvalid:
		return nil, fmt.Errorf("%w: asana rejected the configured PAT", rcerrors.ErrUnauthorized)
	case state == CredentialNotFound:
		return nil, fmt.Errorf("%w: asana project %s not found", rcerrors.ErrNotFound, a.cfg.ProjectID)
	}

	users, err := a.workspaceUsers(ctx)
	if err != nil {
		a.logger.Warn("could not list workspace users, tasks will be unassigned", logging.Err(err))
		users = nil
	}

	var items []TaskResult
	created := 0
	for _, item := range rec.ActionItems {
		if strings.TrimSpace(item.Task) == "" {
			continue
		}
		gid, err := a.createTask(ctx, item, users)
		if err != nil {
			a.logger.Warn("asana task creation failed",
				logging.F("task", item.Task),
				logging.Err(err))
			items = append(items, TaskResult{
				Task:     item.Task,
				Assignee: item.Assignee,
				Err:      err.Error(),
			})
			continue
		}
		items = append(items, TaskResult{
			Task:     item.Task,
			Assignee: item.Assignee,
			Success:  true,
			RemoteID: gid,
		})
		created++
	}

	if len(items) > 0 && created == 0 {
		return nil, fmt.Errorf("all %d asana tasks failed: %s", len(items), items[0].Err)
	}

	return &Result{
		Created: created,
		Detail:  fmt.Sprintf("%d/%d tasks created", created, len(items)),
		Items:   items,
	}, nil
}

// ValidateCredentials checks the PAT against the configured project. The
// returned state distinguishes a rejected token from a missing project; a
// non-nil error means the check itself could not be completed.
func (a *AsanaAdapter) ValidateCredentials(ctx context.Context) (CredentialState, error) {
	url := fmt.Sprintf("%s/projects/%s", a.cfg.APIBaseURL, a.cfg.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.PAT)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return CredentialValid, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return CredentialInvalid, nil
	case http.StatusNotFound:
		return CredentialNotFound, nil
	default:
		return "", fmt.Errorf("asana projects API returned HTTP %d", resp.StatusCode)
	}
}

func (a *AsanaAdapter) workspaceUsers(ctx context.Context) ([]asanaUser, error) {
	if a.cfg.WorkspaceID == "" {
		return nil, nil
	}

	url := fmt.Sprintf("%s/users?workspace=%s", a.cfg.APIBaseURL, a.cfg.WorkspaceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.PAT)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asana users API returned HTTP %d", resp.StatusCode)
	}

	var out struct {
		Data []asanaUser `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding asana users: %w", err)
	}
	return out.Data, nil
}

// createTask posts one task and returns the gid Asana assigned to it.
func (a *AsanaAdapter) createTask(ctx context.Context, item analyze.ActionItem, users []asanaUser) (string, error) {
	assignee := item.Assignee
	if assignee == "" {
		assignee = "N/A"
	}

	data := asanaTaskData{
		Name:     item.Task,
		Notes:    fmt.Sprintf("Assignee: %s", assignee),
		Projects: []string{a.cfg.ProjectID},
	}
	if gid := resolveAssignee(users, item.Assignee); gid != "" {
		data.Assignee = gid
	}

	payload, err := json.Marshal(map[string]asanaTaskData{"data": data})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.APIBaseURL+"/tasks", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.PAT)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var out struct {
			Data struct {
				GID string `json:"gid"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decoding asana task: %w", err)
		}
		return out.Data.GID, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", fmt.Errorf("%w: asana tasks API returned HTTP %d", rcerrors.ErrUnauthorized, resp.StatusCode)
	default:
		return "", fmt.Errorf("asana tasks API returned HTTP %d", resp.StatusCode)
	}
}

// resolveAssignee matches a mentioned name against workspace users with a
// caseless substring match ("alice" resolves to "Alice Smith"). The first
// match wins.
func resolveAssignee(users []asanaUser, mention string) string {
	mention = strings.TrimSpace(mention)
	if mention == "" {
		return ""
	}

	fold := cases.Fold()
	needle := fold.String(mention)
	for _, user := range users {
		if strings.Contains(fold.String(user.Name), needle) {
			return user.GID
		}
	}
	return ""
}
