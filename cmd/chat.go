package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	"github.com/otherjamesbrown/recap-cli/pkg/chat"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
	"github.com/otherjamesbrown/recap-cli/pkg/session"
)

// NewChatCommand creates the 'chat' command.
func NewChatCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}

	return &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask follow-up questions about the latest analyzed meeting",
		Long: `Ask follow-up questions grounded in the latest analysis record.

With a question argument a single answer is printed. Without one, an
interactive session starts; exit with 'quit', 'exit', or Ctrl-D.

Examples:
  recap chat "Who owns the caching work?"
  recap chat`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := ""
			if len(args) > 0 {
				question = args[0]
			}
			return runChat(cmd, deps, question)
		},
	}
}

func runChat(cmd *cobra.Command, deps *Deps, question string) error {
	if err := deps.ensure(); err != nil {
		return err
	}

	store, err := deps.sessionStore()
	if err != nil {
		return err
	}
	rec, err := store.Record()
	if err != nil {
		return err
	}

	responder, err := deps.responder()
	if err != nil {
		return err
	}

	if question != "" {
		return chatTurn(cmd, deps, responder, store, rec, question)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Chatting about the latest meeting. Type 'quit' to exit.")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(cmd.OutOrStdout(), "> ")
		if !scanner.Scan() {
			fmt.Fprintln(cmd.OutOrStdout())
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := chatTurn(cmd, deps, responder, store, rec, line); err != nil {
			return err
		}
	}
}

// chatTurn answers one question with the stored history as context. Provider
// failures print the fallback reply instead of aborting, so an interactive
// session survives transient outages.
func chatTurn(cmd *cobra.Command, deps *Deps, responder *chat.Responder, store *session.Store, rec *analyze.Record, question string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), deps.commandTimeout())
	defer cancel()

	var history []chat.Turn
	for _, turn := range store.History() {
		history = append(history, chat.Turn{Role: turn.Role, Content: turn.Content})
	}

	reply, err := responder.Ask(ctx, rec, history, question)
	if err != nil {
		deps.Logger.Warn("chat turn failed", logging.Err(err))
		reply = chat.FallbackReply
	}

	if err := store.AppendTurn("user", question); err != nil {
		return err
	}
	if err := store.AppendTurn("assistant", reply); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
