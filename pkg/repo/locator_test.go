package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		owner string
		repo  string
	}{
		{"bare", "octocat/hello-world", "octocat", "hello-world"},
		{"https url", "https://github.com/octocat/hello-world", "octocat", "hello-world"},
		{"git suffix", "https://github.com/octocat/hello-world.git", "octocat", "hello-world"},
		{"trailing slash", "https://github.com/octocat/hello-world/", "octocat", "hello-world"},
		{"no scheme", "github.com/octocat/hello-world", "octocat", "hello-world"},
		{"deep path keeps owner and name", "github.com/octocat/hello-world/tree/main", "octocat", "hello-world"},
		{"surrounding whitespace", "  octocat/hello-world\n", "octocat", "hello-world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocator(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.owner, loc.Owner)
			assert.Equal(t, tt.repo, loc.Name)
		})
	}
}

func TestParseLocatorInvalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"just-a-name",
		"https://github.com/onlyowner",
		"https://gitlab.com/owner/repo",
		"/repo",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseLocator(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, rcerrors.ErrInvalidLocator)
		})
	}
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "octocat/hello-world", Locator{Owner: "octocat", Name: "hello-world"}.String())
}
