package repo

import (
	"sort"
	"time"
)

// Snapshot holds the fetched files of a repository branch.
type Snapshot struct {
	Repository string            `json:"repository"`
	Branch     string            `json:"branch"`
	Files      map[string]string `json:"files"`
	FetchedAt  time.Time         `json:"fetched_at"`
	TotalBytes int64             `json:"total_bytes"`
	Skipped    int               `json:"skipped"`

	// FromCache marks snapshots served from the in-process cache.
	FromCache bool `json:"-"`
}

// FileList returns the snapshot's paths in sorted order.
func (s *Snapshot) FileList() []string {
	paths := make([]string, 0, len(s.Files))
	for path := range s.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Key returns the cache key for a locator and branch.
func Key(loc Locator, branch string) string {
	return loc.String() + "@" + branch
}
