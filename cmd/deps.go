// Package cmd provides CLI commands for the recap tool.
package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/otherjamesbrown/recap-cli/config"
	"github.com/otherjamesbrown/recap-cli/credentials"
	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	"github.com/otherjamesbrown/recap-cli/pkg/chat"
	"github.com/otherjamesbrown/recap-cli/pkg/distribute"
	"github.com/otherjamesbrown/recap-cli/pkg/llm"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
	"github.com/otherjamesbrown/recap-cli/pkg/media"
	"github.com/otherjamesbrown/recap-cli/pkg/observability"
	"github.com/otherjamesbrown/recap-cli/pkg/pipeline"
	"github.com/otherjamesbrown/recap-cli/pkg/repo"
	"github.com/otherjamesbrown/recap-cli/pkg/session"
	"github.com/otherjamesbrown/recap-cli/pkg/transcribe"
)

// Deps holds shared command dependencies. Fields left nil are built lazily
// from the loaded configuration; tests inject fakes.
type Deps struct {
	Config *config.CLIConfig
	Logger logging.Logger

	Provider llm.Provider
	Session  *session.Store
	Creds    *credentials.Store
	Fetcher  pipeline.Snapshotter
	Metrics  *observability.PipelineMetrics
}

// Pipeline metrics register on the default prometheus registerer, so they
// are built at most once per process even across Deps instances.
var (
	metricsOnce   sync.Once
	sharedMetrics *observability.PipelineMetrics
)

// ensure loads configuration, the logger, and the pipeline metrics when they
// were not injected.
func (d *Deps) ensure() error {
	if d.Config == nil {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		d.Config = cfg
	}
	if d.Logger == nil {
		level := logging.LevelInfo
		if d.Config.Debug {
			level = logging.LevelDebug
		}
		d.Logger = logging.NewLogger(&logging.Config{
			Level:       level,
			ServiceName: "recap",
			JSONFormat:  d.Config.JSONLogs,
		})
	}
	if d.Metrics == nil {
		metricsOnce.Do(func() { sharedMetrics = observability.DefaultPipelineMetrics() })
		d.Metrics = sharedMetrics
	}
	return nil
}

func (d *Deps) credentialStore() (*credentials.Store, error) {
	if d.Creds != nil {
		return d.Creds, nil
	}
	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("initializing credential store: %w", err)
	}
	d.Creds = store
	return store, nil
}

func (d *Deps) secret(service string) (string, error) {
	store, err := d.credentialStore()
	if err != nil {
		return "", err
	}
	return store.GetSecret(service)
}

// optionalSecret returns the secret or empty when none is stored.
func (d *Deps) optionalSecret(service string) string {
	secret, err := d.secret(service)
	if err != nil {
		return ""
	}
	return secret
}

func (d *Deps) llmProvider() (llm.Provider, error) {
	if d.Provider != nil {
		return d.Provider, nil
	}
	apiKey, err := d.secret(credentials.ServiceGroq)
	if err != nil {
		return nil, err
	}
	d.Provider = llm.NewGroqProvider(llm.Config{
		BaseURL: d.Config.LLM.BaseURL,
		APIKey:  apiKey,
		Model:   d.Config.LLM.Model,
	})
	return d.Provider, nil
}

func (d *Deps) sessionStore() (*session.Store, error) {
	if d.Session != nil {
		return d.Session, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	store, err := session.NewStore(dir)
	if err != nil {
		return nil, err
	}
	d.Session = store
	return store, nil
}

func (d *Deps) snapshotFetcher() (pipeline.Snapshotter, error) {
	if d.Fetcher != nil {
		return d.Fetcher, nil
	}
	fetcher, err := repo.NewFetcher(repo.FetcherConfig{
		APIBaseURL:         d.Config.GitHub.APIBaseURL,
		Token:              d.optionalSecret(credentials.ServiceGitHub),
		Workers:            d.Config.Snapshot.Workers,
		CacheEntries:       d.Config.Snapshot.CacheEntries,
		MaxFileBytes:       d.Config.Snapshot.MaxFileBytes,
		ExcludedDirs:       d.Config.Snapshot.ExcludedDirs,
		ExcludedExtensions: d.Config.Snapshot.ExcludedExtensions,
	}, d.Logger)
	if err != nil {
		return nil, err
	}
	d.Fetcher = fetcher
	return fetcher, nil
}

func (d *Deps) analyzer() (*analyze.Analyzer, error) {
	provider, err := d.llmProvider()
	if err != nil {
		return nil, err
	}
	return analyze.NewAnalyzer(provider, d.Logger,
		analyze.WithMaxTokens(d.Config.LLM.AnalysisMaxTokens),
		analyze.WithMaxTranscriptChars(d.Config.LLM.MaxTranscriptChars),
		analyze.WithTemperature(d.Config.LLM.Temperature),
		analyze.WithMetrics(d.Metrics)), nil
}

func (d *Deps) responder() (*chat.Responder, error) {
	provider, err := d.llmProvider()
	if err != nil {
		return nil, err
	}
	return chat.NewResponder(provider, d.Config.LLM.ChatMaxTokens, d.Logger), nil
}

func (d *Deps) transcriber() transcribe.Transcriber {
	endpoint := d.Config.Transcribe.Endpoint
	if endpoint == "" {
		endpoint = d.Config.LLM.BaseURL + "/audio/transcriptions"
	}
	return transcribe.NewHTTPTranscriber(transcribe.HTTPConfig{
		Endpoint: endpoint,
		APIKey:   d.optionalSecret(credentials.ServiceGroq),
	})
}

func (d *Deps) runner() (*pipeline.Runner, error) {
	analyzer, err := d.analyzer()
	if err != nil {
		return nil, err
	}
	fetcher, err := d.snapshotFetcher()
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(pipeline.RunnerConfig{
		Extractor:    media.NewExtractor(d.Logger),
		Transcriber:  d.transcriber(),
		ChunkSeconds: d.Config.Transcribe.ChunkSeconds,
		Snapshots:    fetcher,
		Analyzer:     analyzer,
		Metrics:      d.Metrics,
		Logger:       d.Logger,
	}), nil
}

// adapters builds distribution adapters for the requested targets.
func (d *Deps) adapters(targets []string) ([]distribute.Adapter, error) {
	var out []distribute.Adapter
	for _, target := range targets {
		switch target {
		case "github":
			locator, err := repo.ParseLocator(d.Config.GitHub.Repository)
			if err != nil {
				return nil, fmt.Errorf("github.repository is not set to a valid owner/name: %w", err)
			}
			out = append(out, distribute.NewGitHubAdapter(distribute.GitHubConfig{
				APIBaseURL: d.Config.GitHub.APIBaseURL,
				Token:      d.optionalSecret(credentials.ServiceGitHub),
				Repository: locator,
			}))
		case "asana":
			pat, err := d.secret(credentials.ServiceAsana)
			if err != nil {
				return nil, err
			}
			out = append(out, distribute.NewAsanaAdapter(distribute.AsanaConfig{
				APIBaseURL:  d.Config.Asana.APIBaseURL,
				PAT:         pat,
				WorkspaceID: d.Config.Asana.WorkspaceID,
				ProjectID:   d.Config.Asana.ProjectID,
			}, d.Logger))
		case "mail":
			if !d.Config.Mail.IsConfigured() {
				return nil, fmt.Errorf("mail is not configured: set mail.host, mail.from, and mail.to")
			}
			out = append(out, distribute.NewMailAdapter(distribute.MailConfig{
				Host:     d.Config.Mail.Host,
				Port:     d.Config.Mail.Port,
				Username: d.Config.Mail.From,
				Password: d.optionalSecret(credentials.ServiceSMTP),
				From:     d.Config.Mail.From,
				To:       d.Config.Mail.To,
			}))
		default:
			return nil, fmt.Errorf("unknown destination %q (valid: github, asana, mail)", target)
		}
	}
	return out, nil
}

// commandTimeout returns the configured pipeline timeout.
func (d *Deps) commandTimeout() time.Duration {
	if d.Config != nil && d.Config.Timeout > 0 {
		return d.Config.Timeout
	}
	return config.DefaultTimeout
}
