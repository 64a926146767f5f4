// Package repo fetches repository snapshots for meeting analysis. A snapshot
// is the set of text file paths and contents at a branch head, filtered
// through a denylist of build artifacts and binary assets.
package repo

import (
	"fmt"
	"strings"

	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
)

// Locator identifies a repository.
type Locator struct {
	Owner string
	Name  string
}

// String returns the owner/name form.
func (l Locator) String() string {
	return l.Owner + "/" + l.Name
}

// ParseLocator parses a repository locator. Accepted forms:
//
//	owner/name
//	https://github.com/owner/name
//	https://github.com/owner/name.git
//	github.com/owner/name/
//
// Trailing slashes and a .git suffix are stripped before parsing.
func ParseLocator(raw string) (Locator, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimSuffix(clean, "/")
	clean = strings.TrimSuffix(clean, ".git")

	if clean == "" {
		return Locator{}, fmt.Errorf("%w: empty locator", rcerrors.ErrInvalidLocator)
	}

	// URL forms: keep everything after the host.
	if idx := strings.Index(clean, "github.com/"); idx >= 0 {
		clean = clean[idx+len("github.com/"):]
	} else if strings.Contains(clean, "://") {
		return Locator{}, fmt.Errorf("%w: %q is not a github.com URL", rcerrors.ErrInvalidLocator, raw)
	}

	parts := strings.Split(clean, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Locator{}, fmt.Errorf("%w: %q (want owner/name)", rcerrors.ErrInvalidLocator, raw)
	}

	return Locator{Owner: parts[0], Name: parts[1]}, nil
}
