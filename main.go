// Package main provides the recap CLI entry point.
// recap turns meeting recordings and transcripts into summaries, action
// items, and code review follow-ups.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/cmd"
	"github.com/otherjamesbrown/recap-cli/config"
	"github.com/otherjamesbrown/recap-cli/pkg/buildinfo"
)

// Global flags and state.
var (
	timeout      time.Duration
	outputFormat string
	debug        bool
	jsonLogs     bool

	// deps is shared across subcommands so configuration loads once.
	deps = &cmd.Deps{}
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "recap",
	Short: "Meeting intelligence for code review teams",
	Long: `recap turns meeting recordings and transcripts into structured results:
a summary, action items with assignees, per-file code feedback, and decisions.

Results can fan out to GitHub issues, Asana tasks, and email, and every
analysis supports follow-up questions via 'recap chat'.

TYPICAL WORKFLOW:
  recap auth set groq               Store the Groq API key
  recap process ./meeting.mp4       Transcribe and analyze a recording
  recap changes                     Review suggested code changes
  recap distribute --to github      File action items as issues
  recap chat "who owns caching?"    Ask follow-up questions

DISCOVERY:
  recap <command> --help            Flags and examples for any command`,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		// Skip initialization for commands that don't need it.
		if c.Name() == "version" || c.Name() == "help" || c.Name() == "completion" {
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Override with command-line flags.
		if timeout != 0 {
			cfg.Timeout = timeout
		}
		if outputFormat != "" {
			format := config.OutputFormat(outputFormat)
			if !format.IsValid() {
				return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", outputFormat)
			}
			cfg.OutputFormat = format
		}
		if debug {
			cfg.Debug = true
		}
		if jsonLogs {
			cfg.JSONLogs = true
		}

		deps.Config = cfg
		return nil
	},
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build time of the recap CLI.`,
	RunE: func(c *cobra.Command, args []string) error {
		info := buildinfo.Get("recap-cli")
		out := c.OutOrStdout()
		fmt.Fprintf(out, "recap version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go version: %s\n", info.GoVersion)
		return nil
	},
}

// configCmd manages CLI configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and modify the recap CLI configuration settings.`,
}

// configShowCmd displays current configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current CLI configuration values.`,
	RunE: func(c *cobra.Command, args []string) error {
		cfg := deps.Config
		if cfg == nil {
			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
		}

		configPath, _ := config.ConfigPath()

		fmt.Println("Current configuration:")
		fmt.Printf("  Config file:     %s\n", configPath)
		fmt.Printf("  Timeout:         %s\n", cfg.Timeout)
		fmt.Printf("  Output format:   %s\n", cfg.OutputFormat)
		fmt.Printf("  Debug:           %t\n", cfg.Debug)
		fmt.Printf("  LLM model:       %s\n", cfg.LLM.Model)
		fmt.Printf("  LLM base URL:    %s\n", cfg.LLM.BaseURL)
		fmt.Printf("  Chunk seconds:   %d\n", cfg.Transcribe.ChunkSeconds)
		fmt.Printf("  Snapshot workers: %d\n", cfg.Snapshot.Workers)
		fmt.Printf("  GitHub repo:     %s\n", valueOrDefault(cfg.GitHub.Repository, "(not set)"))
		fmt.Printf("  Asana project:   %s\n", valueOrDefault(cfg.Asana.ProjectID, "(not set)"))
		fmt.Printf("  Mail configured: %t\n", cfg.Mail.IsConfigured())

		return nil
	},
}

// configInitCmd initializes configuration.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with default values if one doesn't exist.`,
	RunE: func(c *cobra.Command, args []string) error {
		configPath, err := config.ConfigPath()
		if err != nil {
			return fmt.Errorf("getting config path: %w", err)
		}

		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Configuration file already exists: %s\n", configPath)
			fmt.Println("Use 'recap config show' to view current settings.")
			return nil
		}

		defaultCfg := config.DefaultConfig()
		if err := config.SaveConfig(defaultCfg); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Printf("Created configuration file: %s\n", configPath)
		return nil
	},
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Available keys:
  timeout            - Pipeline timeout (e.g., 5m, 30s)
  output_format      - Default output format (text, json, yaml)
  debug              - Enable debug mode (true/false)
  llm.model          - Model identifier for completions
  llm.base_url       - OpenAI-compatible API base URL
  github.repository  - Default repository for created issues (owner/name)
  asana.workspace    - Asana workspace ID for assignee resolution
  asana.project      - Asana project ID for created tasks
  mail.host          - SMTP server hostname
  mail.from          - Summary email sender address
  mail.to            - Summary email recipients (comma-separated)

Examples:
  recap config set timeout 5m
  recap config set github.repository octocat/hello-world
  recap config set mail.to team@example.com,lead@example.com`,
	Args: cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		currentCfg, err := config.LoadConfig()
		if err != nil {
			currentCfg = config.DefaultConfig()
		}

		switch key {
		case "timeout":
			duration, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			currentCfg.Timeout = duration
		case "output_format":
			format := config.OutputFormat(value)
			if !format.IsValid() {
				return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", value)
			}
			currentCfg.OutputFormat = format
		case "debug":
			switch value {
			case "true", "1":
				currentCfg.Debug = true
			case "false", "0":
				currentCfg.Debug = false
			default:
				return fmt.Errorf("invalid debug value: %s (must be true or false)", value)
			}
		case "llm.model":
			currentCfg.LLM.Model = value
		case "llm.base_url":
			currentCfg.LLM.BaseURL = value
		case "github.repository":
			currentCfg.GitHub.Repository = value
		case "asana.workspace":
			currentCfg.Asana.WorkspaceID = value
		case "asana.project":
			currentCfg.Asana.ProjectID = value
		case "mail.host":
			currentCfg.Mail.Host = value
		case "mail.from":
			currentCfg.Mail.From = value
		case "mail.to":
			currentCfg.Mail.To = splitCommaList(value)
		default:
			return fmt.Errorf("unknown configuration key: %s", key)
		}

		if err := config.SaveConfig(currentCfg); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:                   "completion [bash|zsh|fish|powershell]",
	Short:                 "Generate shell completion scripts",
	Long:                  `Generate shell completion scripts for recap.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(c *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "pipeline timeout (e.g., 30s, 5m)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")

	// Command groups for organized help output.
	rootCmd.AddGroup(
		&cobra.Group{ID: "pipeline", Title: "Pipeline:"},
		&cobra.Group{ID: "results", Title: "Results:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	processCmd := cmd.NewProcessCommand(deps)
	processCmd.GroupID = "pipeline"
	rootCmd.AddCommand(processCmd)

	transcribeCmd := cmd.NewTranscribeCommand(deps)
	transcribeCmd.GroupID = "pipeline"
	rootCmd.AddCommand(transcribeCmd)

	analyzeCmd := cmd.NewAnalyzeCommand(deps)
	analyzeCmd.GroupID = "pipeline"
	rootCmd.AddCommand(analyzeCmd)

	fetchCmd := cmd.NewFetchCommand(deps)
	fetchCmd.GroupID = "pipeline"
	rootCmd.AddCommand(fetchCmd)

	changesCmd := cmd.NewChangesCommand(deps)
	changesCmd.GroupID = "results"
	rootCmd.AddCommand(changesCmd)

	distributeCmd := cmd.NewDistributeCommand(deps)
	distributeCmd.GroupID = "results"
	rootCmd.AddCommand(distributeCmd)

	chatCmd := cmd.NewChatCommand(deps)
	chatCmd.GroupID = "results"
	rootCmd.AddCommand(chatCmd)

	archiveCmd := cmd.NewArchiveCommand(deps)
	archiveCmd.GroupID = "results"
	rootCmd.AddCommand(archiveCmd)

	cmd.AuthCmd.GroupID = "setup"
	rootCmd.AddCommand(cmd.AuthCmd)

	configCmd.GroupID = "setup"
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Set up signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
