package distribute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/repo"
)

// GitHubConfig configures the issue destination.
type GitHubConfig struct {
	APIBaseURL string
	Token      string
	Repository repo.Locator
	Timeout    time.Duration
}

// GitHubAdapter posts the meeting summary as a single issue in the target
// repository, with the action items listed in the issue body.
type GitHubAdapter struct {
	cfg    GitHubConfig
	client *http.Client
}

// NewGitHubAdapter creates a GitHubAdapter.
func NewGitHubAdapter(cfg GitHubConfig) *GitHubAdapter {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.github.com"
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GitHubAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *GitHubAdapter) Name() string { return "github" }

type issueRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type issueResponse struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// issueTitle names the single summary issue.
const issueTitle = "Code Review Meeting Summary"

// Distribute posts the summary as one issue with the action items in its
// body. A record without action items still gets the summary issue.
func (g *GitHubAdapter) Distribute(ctx context.Context, rec *analyze.Record) (*Result, error) {
	if g.cfg.Token == "" {
		return nil, fmt.Errorf("%w: github token not configured", rcerrors.ErrUnauthorized)
	}

	url, err := g.createIssue(ctx, issueTitle, issueBody(rec))
	if err != nil {
		return nil, fmt.Errorf("creating summary issue: %w", err)
	}

	return &Result{Created: 1, Detail: url}, nil
}

// issueBody renders the summary followed by the non-blank action items.
func issueBody(rec *analyze.Record) string {
	var body strings.Builder
	body.WriteString(rec.Summary)

	wroteHeading := false
	for _, item := range rec.ActionItems {
		if strings.TrimSpace(item.Task) == "" {
			continue
		}
		if !wroteHeading {
			body.WriteString("\n\n## Action Items\n")
			wroteHeading = true
		}
		assignee := item.Assignee
		if assignee == "" {
			assignee = "N/A"
		}
		fmt.Fprintf(&body, "- %s (Assignee: %s)", item.Task, assignee)
		if item.File != "" {
			fmt.Fprintf(&body, " (File: %s)", item.File)
		}
		body.WriteString("\n")
	}
	return body.String()
}

func (g *GitHubAdapter) createIssue(ctx context.Context, title, body string) (string, error) {
	payload, err := json.Marshal(issueRequest{Title: title, Body: body})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues",
		g.cfg.APIBaseURL, g.cfg.Repository.Owner, g.cfg.Repository.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", fmt.Errorf("%w: github issues API returned HTTP %d", rcerrors.ErrUnauthorized, resp.StatusCode)
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: repository %s not found", rcerrors.ErrNotFound, g.cfg.Repository.String())
	default:
		return "", fmt.Errorf("github issues API returned HTTP %d", resp.StatusCode)
	}

	var issue issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return "", fmt.Errorf("decoding issue response: %w", err)
	}
	return issue.HTMLURL, nil
}
