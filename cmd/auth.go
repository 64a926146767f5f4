package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/recap-cli/credentials"
)

var authNonInteractive bool

// AuthCmd represents the auth command group.
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage service credentials",
	Long: `Manage credentials for the services recap talks to.

Secrets are stored encrypted in ~/.recap/credentials.yaml. Environment
variables take precedence over stored secrets:

  groq    GROQ_API_KEY     Groq API key for analysis and chat
  github  GITHUB_TOKEN     GitHub token for snapshots and issues
  asana   ASANA_PAT        Asana personal access token
  smtp    SMTP_PASSWORD    SMTP password for summary email`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <service>",
	Short: "Store a secret for a service",
	Long: `Store a secret for a service. The secret is prompted for with hidden
input unless piped on stdin.

Examples:
  recap auth set groq
  echo "$TOKEN" | recap auth set github --non-interactive`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthSet,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which services have credentials",
	Long: `Show each known service, whether a secret is stored, and whether an
environment variable overrides it.

Examples:
  recap auth status`,
	RunE: runAuthStatus,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete [service]",
	Short: "Delete stored credentials",
	Long: `Delete the stored secret for a service, or all stored credentials when
no service is given. Environment variables are not affected.

Examples:
  recap auth delete asana
  recap auth delete`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthDelete,
}

func init() {
	authSetCmd.Flags().BoolVar(&authNonInteractive, "non-interactive", false, "Read the secret from stdin instead of prompting")

	AuthCmd.AddCommand(authSetCmd)
	AuthCmd.AddCommand(authStatusCmd)
	AuthCmd.AddCommand(authDeleteCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	service := args[0]
	if !credentials.IsKnownService(service) {
		return fmt.Errorf("unknown service %q (valid: %s)",
			service, strings.Join(credentials.KnownServices(), ", "))
	}

	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	secret, err := readSecret(cmd, service)
	if err != nil {
		return err
	}
	if secret == "" {
		return fmt.Errorf("no secret provided")
	}

	if err := store.SetSecret(service, secret); err != nil {
		return fmt.Errorf("storing secret: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored secret for %s: %s\n", service, credentials.MaskCredential(secret))
	credPath, _ := credentials.CredentialsPath()
	fmt.Fprintf(cmd.OutOrStdout(), "Credentials stored in: %s (%s)\n", credPath, store.KeyDescription())
	return nil
}

// readSecret reads the secret with hidden terminal input, falling back to
// plain stdin when no terminal is attached.
func readSecret(cmd *cobra.Command, service string) (string, error) {
	if !authNonInteractive && term.IsTerminal(int(syscall.Stdin)) {
		fmt.Fprintf(cmd.OutOrStdout(), "Secret for %s: ", service)
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-10s %-12s %s\n", "SERVICE", "STATUS", "SOURCE")
	for _, service := range credentials.KnownServices() {
		status := "not set"
		source := "-"
		if secret, err := store.GetSecret(service); err == nil {
			status = credentials.MaskCredential(secret)
			source = "stored"
			if envVar := credentials.EnvVarFor(service); envVar != "" && os.Getenv(envVar) != "" {
				source = "env:" + envVar
			}
		}
		fmt.Fprintf(w, "%-10s %-12s %s\n", service, status, source)
	}
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	if len(args) == 0 {
		if err := store.Delete(); err != nil {
			return fmt.Errorf("deleting credentials: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All stored credentials deleted.")
		return nil
	}

	service := args[0]
	if err := store.DeleteSecret(service); err != nil {
		return fmt.Errorf("deleting secret: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted stored secret for %s.\n", service)
	return nil
}
