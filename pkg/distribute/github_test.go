package distribute

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/repo"
)

func TestGitHubAdapterCreatesSummaryIssue(t *testing.T) {
	var payloads []issueRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octocat/hello-world/issues", r.URL.Path)
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))

		var payload issueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		payloads = append(payloads, payload)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(issueResponse{Number: 1, HTMLURL: "https://github.test/issue/1"})
	}))
	defer srv.Close()

	g := NewGitHubAdapter(GitHubConfig{
		APIBaseURL: srv.URL,
		Token:      "ghp_test",
		Repository: repo.Locator{Owner: "octocat", Name: "hello-world"},
	})

	rec := testRecord()
	rec.ActionItems = append(rec.ActionItems, analyze.ActionItem{Task: "Fix flaky test", File: "db_test.py"})

	result, err := g.Distribute(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, "https://github.test/issue/1", result.Detail)

	// One issue for the whole meeting, action items in the body.
	require.Len(t, payloads, 1)
	assert.Equal(t, "Code Review Meeting Summary", payloads[0].Title)
	assert.True(t, strings.HasPrefix(payloads[0].Body, "Discussed refactoring db.py."))
	assert.Contains(t, payloads[0].Body, "## Action Items")
	assert.Contains(t, payloads[0].Body, "- Add caching (Assignee: Alice Smith)")
	assert.Contains(t, payloads[0].Body, "- Fix flaky test (Assignee: N/A) (File: db_test.py)")
}

func TestGitHubAdapterPostsSummaryWithoutActionItems(t *testing.T) {
	var payloads []issueRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload issueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		payloads = append(payloads, payload)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(issueResponse{Number: 1, HTMLURL: "https://github.test/issue/1"})
	}))
	defer srv.Close()

	g := NewGitHubAdapter(GitHubConfig{APIBaseURL: srv.URL, Token: "t",
		Repository: repo.Locator{Owner: "o", Name: "r"}})

	rec := testRecord()
	rec.ActionItems = []analyze.ActionItem{{Task: "   "}}

	result, err := g.Distribute(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	require.Len(t, payloads, 1)
	assert.Equal(t, rec.Summary, payloads[0].Body)
	assert.NotContains(t, payloads[0].Body, "Action Items")
}

func TestGitHubAdapterNon201(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "validation failed", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	g := NewGitHubAdapter(GitHubConfig{APIBaseURL: srv.URL, Token: "t",
		Repository: repo.Locator{Owner: "o", Name: "r"}})

	_, err := g.Distribute(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 422")
}

func TestGitHubAdapterUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewGitHubAdapter(GitHubConfig{APIBaseURL: srv.URL, Token: "bad",
		Repository: repo.Locator{Owner: "o", Name: "r"}})

	_, err := g.Distribute(context.Background(), testRecord())
	assert.True(t, rcerrors.IsUnauthorized(err))
}

func TestGitHubAdapterMissingToken(t *testing.T) {
	g := NewGitHubAdapter(GitHubConfig{Repository: repo.Locator{Owner: "o", Name: "r"}})
	_, err := g.Distribute(context.Background(), testRecord())
	assert.True(t, rcerrors.IsUnauthorized(err))
}
