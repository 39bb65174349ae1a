package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/agent"
)

const chatPrompt = "> "

// messageHandler is the part of *agent.Agent the console drives.
type messageHandler interface {
	HandleMessage(ctx context.Context, sender, text string) *agent.Reply
	ClearSession(sender string)
}

func newChatCmd() *cobra.Command {
	var sender string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent from the terminal",
		Long:  "chat reads one message per line from stdin and prints each reply. Type /clear to reset the conversation.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := wireApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.agent, sender)
		},
	}

	cmd.Flags().StringVar(&sender, "sender", agent.DefaultSender, "sender id the conversation is kept under")
	return cmd
}

func runChat(ctx context.Context, in io.Reader, out io.Writer, h messageHandler, sender string) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprint(out, chatPrompt)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
		case line == "/clear":
			h.ClearSession(sender)
			fmt.Fprintln(out, "(conversation cleared)")
		default:
			reply := h.HandleMessage(ctx, sender, line)
			fmt.Fprintln(out, formatReply(reply))
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(out, chatPrompt)
	}

	return scanner.Err()
}

func formatReply(r *agent.Reply) string {
	if r == nil {
		return "(no reply)"
	}
	if !r.Success && r.Response == "" {
		return "error: " + r.Error
	}

	var b strings.Builder
	b.WriteString(r.Response)
	if len(r.ToolsExecuted) > 0 {
		fmt.Fprintf(&b, "\n  [tools: %s, steps: %d]", strings.Join(r.ToolsExecuted, ", "), r.Steps)
	}
	return b.String()
}
