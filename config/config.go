// Package config provides CLI configuration management for the recap command-line tool.
// It supports loading configuration from YAML files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultTimeout      = 10 * time.Minute
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".recap"
	DefaultConfigFile   = "config.yaml"

	DefaultLLMBaseURL        = "https://api.groq.com/openai/v1"
	DefaultLLMModel          = "llama3-8b-8192"
	DefaultAnalysisMaxTokens  = 2000
	DefaultChatMaxTokens      = 500
	DefaultTemperature        = 0.5
	DefaultMaxTranscriptChars = 24000

	DefaultChunkSeconds = 30

	DefaultSnapshotWorkers      = 4
	DefaultSnapshotCacheEntries = 16
	DefaultSnapshotMaxFileBytes = 262144

	DefaultSMTPPort = 587
)

// DefaultExcludedDirs are directory names skipped when building repository
// snapshots. Matching a directory prunes its entire subtree.
var DefaultExcludedDirs = []string{"node_modules", ".git", "__pycache__", "dist", "build"}

// DefaultExcludedExtensions are file extensions skipped when building
// repository snapshots.
var DefaultExcludedExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".woff", ".ttf", ".mp4",
}

// LLMConfig holds language model settings.
type LLMConfig struct {
	// BaseURL is the OpenAI-compatible API base URL.
	BaseURL string `yaml:"base_url,omitempty"`

	// Model is the model identifier sent with completion requests.
	Model string `yaml:"model,omitempty"`

	// AnalysisMaxTokens caps the completion size for meeting analysis.
	AnalysisMaxTokens int `yaml:"analysis_max_tokens,omitempty"`

	// ChatMaxTokens caps the completion size for follow-up chat turns.
	ChatMaxTokens int `yaml:"chat_max_tokens,omitempty"`

	// MaxTranscriptChars caps how much transcript text is embedded in the
	// analysis prompt; longer transcripts are prefix-trimmed.
	MaxTranscriptChars int `yaml:"max_transcript_chars,omitempty"`

	// Temperature is the sampling temperature for all completions.
	Temperature float64 `yaml:"temperature,omitempty"`
}

// TranscribeConfig holds speech-to-text settings.
type TranscribeConfig struct {
	// Endpoint is the transcription service URL. When empty, transcription
	// falls back to the LLM provider's audio endpoint.
	Endpoint string `yaml:"endpoint,omitempty"`

	// ChunkSeconds is the duration of each audio chunk sent for recognition.
	ChunkSeconds int `yaml:"chunk_seconds,omitempty"`
}

// SnapshotConfig holds repository snapshot settings.
type SnapshotConfig struct {
	// ExcludedDirs are directory names pruned from the snapshot walk.
	ExcludedDirs []string `yaml:"excluded_dirs,omitempty"`

	// ExcludedExtensions are file extensions skipped during the walk.
	ExcludedExtensions []string `yaml:"excluded_extensions,omitempty"`

	// Workers bounds concurrent content fetches.
	Workers int `yaml:"workers,omitempty"`

	// CacheEntries bounds the in-process snapshot cache.
	CacheEntries int `yaml:"cache_entries,omitempty"`

	// MaxFileBytes skips files larger than this when fetching content.
	MaxFileBytes int `yaml:"max_file_bytes,omitempty"`
}

// GitHubConfig holds issue tracker settings.
type GitHubConfig struct {
	// APIBaseURL overrides the GitHub API base URL (for testing or GHE).
	APIBaseURL string `yaml:"api_base_url,omitempty"`

	// Repository is the default owner/name target for created issues.
	Repository string `yaml:"repository,omitempty"`
}

// AsanaConfig holds task tracker settings.
type AsanaConfig struct {
	// APIBaseURL overrides the Asana API base URL.
	APIBaseURL string `yaml:"api_base_url,omitempty"`

	// WorkspaceID is the Asana workspace for created tasks.
	WorkspaceID string `yaml:"workspace_id,omitempty"`

	// ProjectID is the Asana project created tasks are added to.
	ProjectID string `yaml:"project_id,omitempty"`
}

// MailConfig holds summary email settings.
type MailConfig struct {
	// Host is the SMTP server hostname.
	Host string `yaml:"host,omitempty"`

	// Port is the SMTP server port (default: 587, STARTTLS).
	Port int `yaml:"port,omitempty"`

	// From is the sender address.
	From string `yaml:"from,omitempty"`

	// To are the default recipient addresses.
	To []string `yaml:"to,omitempty"`
}

// IsConfigured returns true if mail has the required fields set.
func (c *MailConfig) IsConfigured() bool {
	return c != nil && c.Host != "" && c.From != "" && len(c.To) > 0
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// Timeout is the default timeout for pipeline runs.
	Timeout time.Duration `yaml:"timeout"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// JSONLogs switches log output from console to JSON format.
	JSONLogs bool `yaml:"json_logs,omitempty"`

	// LLM contains language model settings.
	LLM LLMConfig `yaml:"llm,omitempty"`

	// Transcribe contains speech-to-text settings.
	Transcribe TranscribeConfig `yaml:"transcribe,omitempty"`

	// Snapshot contains repository snapshot settings.
	Snapshot SnapshotConfig `yaml:"snapshot,omitempty"`

	// GitHub contains issue tracker settings.
	GitHub GitHubConfig `yaml:"github,omitempty"`

	// Asana contains task tracker settings.
	Asana AsanaConfig `yaml:"asana,omitempty"`

	// Mail contains summary email settings.
	Mail MailConfig `yaml:"mail,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		Timeout:      DefaultTimeout,
		OutputFormat: DefaultOutputFormat,
		LLM: LLMConfig{
			BaseURL:            DefaultLLMBaseURL,
			Model:              DefaultLLMModel,
			AnalysisMaxTokens:  DefaultAnalysisMaxTokens,
			ChatMaxTokens:      DefaultChatMaxTokens,
			MaxTranscriptChars: DefaultMaxTranscriptChars,
			Temperature:        DefaultTemperature,
		},
		Transcribe: TranscribeConfig{
			ChunkSeconds: DefaultChunkSeconds,
		},
		Snapshot: SnapshotConfig{
			ExcludedDirs:       append([]string(nil), DefaultExcludedDirs...),
			ExcludedExtensions: append([]string(nil), DefaultExcludedExtensions...),
			Workers:            DefaultSnapshotWorkers,
			CacheEntries:       DefaultSnapshotCacheEntries,
			MaxFileBytes:       DefaultSnapshotMaxFileBytes,
		},
		Mail: MailConfig{
			Port: DefaultSMTPPort,
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $RECAP_CONFIG_DIR if set, otherwise ~/.recap
func ConfigDir() (string, error) {
	if dir := os.Getenv("RECAP_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.recap/config.yaml or $RECAP_CONFIG_DIR/config.yaml)
// 3. A .env file in the working directory, if present
// 4. Environment variables (RECAP_TIMEOUT, RECAP_OUTPUT_FORMAT, ...)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// A local .env is convenient for development; ignore when absent.
	_ = godotenv.Load()

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// We need a temp struct for unmarshaling duration as string.
	type configFile struct {
		Timeout      string           `yaml:"timeout"`
		OutputFormat OutputFormat     `yaml:"output_format"`
		Debug        bool             `yaml:"debug"`
		JSONLogs     bool             `yaml:"json_logs"`
		LLM          LLMConfig        `yaml:"llm"`
		Transcribe   TranscribeConfig `yaml:"transcribe"`
		Snapshot     SnapshotConfig   `yaml:"snapshot"`
		GitHub       GitHubConfig     `yaml:"github"`
		Asana        AsanaConfig      `yaml:"asana"`
		Mail         MailConfig       `yaml:"mail"`
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.Timeout = timeout
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	cfg.Debug = fileCfg.Debug
	cfg.JSONLogs = fileCfg.JSONLogs

	mergeLLM(&cfg.LLM, &fileCfg.LLM)
	mergeTranscribe(&cfg.Transcribe, &fileCfg.Transcribe)
	mergeSnapshot(&cfg.Snapshot, &fileCfg.Snapshot)
	if fileCfg.GitHub.APIBaseURL != "" {
		cfg.GitHub.APIBaseURL = fileCfg.GitHub.APIBaseURL
	}
	if fileCfg.GitHub.Repository != "" {
		cfg.GitHub.Repository = fileCfg.GitHub.Repository
	}
	if fileCfg.Asana.APIBaseURL != "" {
		cfg.Asana.APIBaseURL = fileCfg.Asana.APIBaseURL
	}
	if fileCfg.Asana.WorkspaceID != "" {
		cfg.Asana.WorkspaceID = fileCfg.Asana.WorkspaceID
	}
	if fileCfg.Asana.ProjectID != "" {
		cfg.Asana.ProjectID = fileCfg.Asana.ProjectID
	}
	mergeMail(&cfg.Mail, &fileCfg.Mail)

	return nil
}

func mergeLLM(dst, src *LLMConfig) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.AnalysisMaxTokens > 0 {
		dst.AnalysisMaxTokens = src.AnalysisMaxTokens
	}
	if src.ChatMaxTokens > 0 {
		dst.ChatMaxTokens = src.ChatMaxTokens
	}
	if src.MaxTranscriptChars > 0 {
		dst.MaxTranscriptChars = src.MaxTranscriptChars
	}
	if src.Temperature > 0 {
		dst.Temperature = src.Temperature
	}
}

func mergeTranscribe(dst, src *TranscribeConfig) {
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.ChunkSeconds > 0 {
		dst.ChunkSeconds = src.ChunkSeconds
	}
}

func mergeSnapshot(dst, src *SnapshotConfig) {
	if src.ExcludedDirs != nil {
		dst.ExcludedDirs = src.ExcludedDirs
	}
	if src.ExcludedExtensions != nil {
		dst.ExcludedExtensions = src.ExcludedExtensions
	}
	if src.Workers > 0 {
		dst.Workers = src.Workers
	}
	if src.CacheEntries > 0 {
		dst.CacheEntries = src.CacheEntries
	}
	if src.MaxFileBytes > 0 {
		dst.MaxFileBytes = src.MaxFileBytes
	}
}

func mergeMail(dst, src *MailConfig) {
	if src.Host != "" {
		dst.Host = src.Host
	}
	if src.Port > 0 {
		dst.Port = src.Port
	}
	if src.From != "" {
		dst.From = src.From
	}
	if len(src.To) > 0 {
		dst.To = src.To
	}
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("RECAP_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = timeout
		}
	}

	if v := os.Getenv("RECAP_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("RECAP_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	if v := os.Getenv("RECAP_JSON_LOGS"); v == "true" || v == "1" {
		cfg.JSONLogs = true
	}

	if v := os.Getenv("RECAP_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	if v := os.Getenv("RECAP_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("RECAP_TRANSCRIBE_ENDPOINT"); v != "" {
		cfg.Transcribe.Endpoint = v
	}

	if v := os.Getenv("RECAP_SNAPSHOT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Snapshot.Workers = n
		}
	}

	if v := os.Getenv("RECAP_GITHUB_REPOSITORY"); v != "" {
		cfg.GitHub.Repository = v
	}

	if v := os.Getenv("RECAP_ASANA_WORKSPACE"); v != "" {
		cfg.Asana.WorkspaceID = v
	}

	if v := os.Getenv("RECAP_ASANA_PROJECT"); v != "" {
		cfg.Asana.ProjectID = v
	}

	if v := os.Getenv("RECAP_SMTP_HOST"); v != "" {
		cfg.Mail.Host = v
	}

	if v := os.Getenv("RECAP_SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Mail.Port = n
		}
	}

	if v := os.Getenv("RECAP_MAIL_FROM"); v != "" {
		cfg.Mail.From = v
	}

	if v := os.Getenv("RECAP_MAIL_TO"); v != "" {
		cfg.Mail.To = splitList(v)
	}
}

// splitList splits a comma-separated list, trimming whitespace.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be between 0 and 2")
	}

	if c.Transcribe.ChunkSeconds <= 0 {
		return fmt.Errorf("transcribe chunk_seconds must be positive")
	}

	if c.Snapshot.Workers <= 0 {
		return fmt.Errorf("snapshot workers must be positive")
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	// Convert to YAML-friendly format with duration as string.
	type configFile struct {
		Timeout      string           `yaml:"timeout"`
		OutputFormat OutputFormat     `yaml:"output_format"`
		Debug        bool             `yaml:"debug,omitempty"`
		JSONLogs     bool             `yaml:"json_logs,omitempty"`
		LLM          LLMConfig        `yaml:"llm,omitempty"`
		Transcribe   TranscribeConfig `yaml:"transcribe,omitempty"`
		Snapshot     SnapshotConfig   `yaml:"snapshot,omitempty"`
		GitHub       GitHubConfig     `yaml:"github,omitempty"`
		Asana        AsanaConfig      `yaml:"asana,omitempty"`
		Mail         MailConfig       `yaml:"mail,omitempty"`
	}

	fileCfg := configFile{
		Timeout:      cfg.Timeout.String(),
		OutputFormat: cfg.OutputFormat,
		Debug:        cfg.Debug,
		JSONLogs:     cfg.JSONLogs,
		LLM:          cfg.LLM,
		Transcribe:   cfg.Transcribe,
		Snapshot:     cfg.Snapshot,
		GitHub:       cfg.GitHub,
		Asana:        cfg.Asana,
		Mail:         cfg.Mail,
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
