package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	defaultBranch     = "main"

	defaultWorkers      = 4
	defaultCacheEntries = 16
	defaultMaxFileBytes = 262144
)

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// APIBaseURL overrides the GitHub API base URL.
	APIBaseURL string

	// Token is an optional bearer token for private repositories and
	// higher rate limits.
	Token string

	// Workers bounds concurrent content downloads.
	Workers int

	// CacheEntries bounds the in-process snapshot cache.
	CacheEntries int

	// MaxFileBytes skips files larger than this.
	MaxFileBytes int

	// ExcludedDirs prunes whole subtrees by directory name.
	ExcludedDirs []string

	// ExcludedExtensions skips files by extension suffix.
	ExcludedExtensions []string

	Timeout time.Duration
}

// Fetcher walks the GitHub contents API and materializes branch snapshots.
// Snapshots are cached per owner/name@branch for the life of the process.
type Fetcher struct {
	cfg    FetcherConfig
	client *http.Client
	cache  *lru.Cache[string, *Snapshot]
	logger logging.Logger
}

// NewFetcher creates a Fetcher. Zero config fields fall back to defaults.
func NewFetcher(cfg FetcherConfig, logger logging.Logger) (*Fetcher, error) {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.CacheEntries <= 0 {
		cfg.CacheEntries = defaultCacheEntries
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxFileBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	cache, err := lru.New[string, *Snapshot](cfg.CacheEntries)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot cache: %w", err)
	}

	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		logger: logger,
	}, nil
}

// contentItem is one entry from the contents API listing.
type contentItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int    `json:"size"`
	DownloadURL string `json:"download_url"`
}

// Fetch returns the snapshot for a locator at a branch, serving repeated
// requests from the cache. An empty branch means the default branch.
func (f *Fetcher) Fetch(ctx context.Context, loc Locator, branch string) (*Snapshot, error) {
	if branch == "" {
		branch = defaultBranch
	}

	key := Key(loc, branch)
	if snap, ok := f.cache.Get(key); ok {
		f.logger.Debug("snapshot cache hit", logging.F("repository", loc.String()))
		cached := *snap
		cached.FromCache = true
		return &cached, nil
	}

	started := time.Now()
	files, skipped, err := f.walk(ctx, loc, branch)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Repository: loc.String(),
		Branch:     branch,
		Files:      make(map[string]string, len(files)),
		FetchedAt:  time.Now().UTC(),
		Skipped:    skipped,
	}

	if err := f.download(ctx, files, snap); err != nil {
		return nil, err
	}

	f.logger.Info("repository snapshot fetched",
		logging.F("repository", loc.String()),
		logging.F("branch", branch),
		logging.F("files", len(snap.Files)),
		logging.F("skipped", snap.Skipped),
		logging.F("bytes", snap.TotalBytes),
		logging.F("duration_ms", time.Since(started).Milliseconds()))

	f.cache.Add(key, snap)
	return snap, nil
}

// walk lists the repository tree breadth-first, pruning excluded subtrees
// before they are ever listed.
func (f *Fetcher) walk(ctx context.Context, loc Locator, branch string) ([]contentItem, int, error) {
	var (
		files   []contentItem
		skipped int
		queue   = []string{""}
	)

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		items, err := f.listDir(ctx, loc, branch, dir)
		if err != nil {
			return nil, 0, err
		}

		for _, item := range items {
			switch item.Type {
			case "dir":
				if f.excludedDir(item.Path) {
					f.logger.Debug("pruning excluded directory", logging.F("path", item.Path))
					continue
				}
				queue = append(queue, item.Path)
			case "file":
				if f.excludedFile(item.Path) {
					continue
				}
				if item.Size > f.cfg.MaxFileBytes {
					f.logger.Debug("skipping oversized file",
						logging.F("path", item.Path),
						logging.F("size", item.Size))
					skipped++
					continue
				}
				files = append(files, item)
			}
		}
	}

	return files, skipped, nil
}

func (f *Fetcher) listDir(ctx context.Context, loc Locator, branch, dir string) ([]contentItem, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		f.cfg.APIBaseURL, loc.Owner, loc.Name, dir, branch)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building contents request: %w", err)
	}
	f.authorize(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", loc.String(), dir, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: repository %s not found at branch %s",
			rcerrors.ErrNotFound, loc.String(), branch)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: github contents API returned HTTP %d",
			rcerrors.ErrUnauthorized, resp.StatusCode)
	default:
		return nil, fmt.Errorf("github contents API returned HTTP %d for %s", resp.StatusCode, dir)
	}

	var items []contentItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding contents listing: %w", err)
	}
	return items, nil
}

// download fetches file contents through a bounded worker pool.
func (f *Fetcher) download(ctx context.Context, files []contentItem, snap *Snapshot) error {
	jobs := make(chan contentItem)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	workers := f.cfg.Workers
	if workers > len(files) {
		workers = len(files)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				content, err := f.fetchContent(ctx, item)
				if err != nil {
					f.logger.Warn("skipping unreadable file",
						logging.F("path", item.Path),
						logging.Err(err))
					mu.Lock()
					snap.Skipped++
					mu.Unlock()
					continue
				}
				mu.Lock()
				snap.Files[item.Path] = content
				snap.TotalBytes += int64(len(content))
				mu.Unlock()
			}
		}()
	}

	for _, item := range files {
		select {
		case jobs <- item:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	return ctx.Err()
}

func (f *Fetcher) fetchContent(ctx context.Context, item contentItem) (string, error) {
	if item.DownloadURL == "" {
		return "", fmt.Errorf("no download URL for %s", item.Path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.DownloadURL, nil)
	if err != nil {
		return "", err
	}
	f.authorize(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.cfg.MaxFileBytes)+1))
	if err != nil {
		return "", err
	}
	if len(body) > f.cfg.MaxFileBytes {
		return "", fmt.Errorf("content exceeds %d bytes", f.cfg.MaxFileBytes)
	}
	return string(body), nil
}

func (f *Fetcher) authorize(req *http.Request) {
	if f.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.Token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
}

// excludedDir reports whether a directory path matches the denylist. A match
// on any path component prunes the whole subtree.
func (f *Fetcher) excludedDir(path string) bool {
	for _, dir := range f.cfg.ExcludedDirs {
		if path == dir || strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") ||
			strings.HasSuffix(path, "/"+dir) {
			return true
		}
	}
	return false
}

func (f *Fetcher) excludedFile(path string) bool {
	for _, dir := range f.cfg.ExcludedDirs {
		if strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") {
			return true
		}
	}
	for _, ext := range f.cfg.ExcludedExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
