package main

import (
	"errors"
	"fmt"
	"strings"

	"edubot/internal/domain"
	"edubot/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) topicsCmd() *cobra.Command {
	var class, subject string
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List topics with uploaded material for a class and subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			topics, err := c.app.chat.Topics(cmd.Context(), class, subject)
			if err != nil {
				return err
			}
			if len(topics) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No topics found.")
				return nil
			}
			for _, t := range topics {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "Class (1-10)")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func (c *cli) threadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "threads",
		Short: "List your chat threads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			threads, err := c.app.chat.Threads(cmd.Context())
			if err != nil {
				return err
			}
			if len(threads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No threads yet. Create one with: edubot new-thread")
				return nil
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "CLASS", "SUBJECT", "TOPIC", "UPDATED")
			for _, th := range threads {
				updated := ""
				if ts := th.Updated(); !ts.IsZero() {
					updated = ts.Local().Format("2006-01-02 15:04")
				}
				t.Row(th.ThreadID, th.Class, th.Subject, th.Topic, updated)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func (c *cli) newThreadCmd() *cobra.Command {
	var form domain.ThreadForm
	cmd := &cobra.Command{
		Use:   "new-thread",
		Short: "Start a thread for a class, subject and topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			th, err := c.app.chat.CreateThread(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created thread %s (%s, Class %s, %s)\n", th.ThreadID, th.Topic, th.Class, th.Subject)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Class, "class", "", "Class (1-10)")
	cmd.Flags().StringVar(&form.Subject, "subject", "", "Subject")
	cmd.Flags().StringVar(&form.Topic, "topic", "", "Topic")
	return cmd
}

func (c *cli) messagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messages <thread-id>",
		Short: "Print a thread's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			msgs, err := c.app.chat.Messages(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(out, "No messages yet.")
				return nil
			}
			for _, m := range msgs {
				who := "EduBot"
				if m.Sender == domain.SenderUser {
					who = "You"
				}
				fmt.Fprintf(out, "%s:\n%s\n\n", who, m.Message)
			}
			return nil
		},
	}
}

func (c *cli) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <thread-id> <question>",
		Short: "Ask a question in a thread and print the answer as it is revealed",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			ctx := cmd.Context()
			thread := c.findThread(cmd, args[0])
			question := strings.Join(args[1:], " ")

			out := cmd.OutOrStdout()
			printed := 0
			answer, err := c.app.chat.Ask(ctx, thread, question, func(partial string) {
				fmt.Fprint(out, partial[printed:])
				printed = len(partial)
			})
			if err != nil {
				return err
			}
			// finish the line if the reveal was cut short
			fmt.Fprintln(out, answer[min(printed, len(answer)):])
			return nil
		},
	}
}

// findThread looks up the class, subject and topic of id. Unknown ids
// are sent with the id alone.
func (c *cli) findThread(cmd *cobra.Command, id string) domain.Thread {
	threads, err := c.app.chat.Threads(cmd.Context())
	if err == nil {
		for _, th := range threads {
			if th.ThreadID == id {
				return th
			}
		}
	}
	c.app.log.Debug("thread not in home list", zap.String("thread_id", id))
	return domain.Thread{ThreadID: id}
}

func (c *cli) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive student dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			ctx := cmd.Context()
			profile, err := c.app.auth.Current(ctx)
			if err != nil {
				return err
			}
			dark, err := c.app.auth.DarkMode(ctx)
			if err != nil {
				c.app.log.Warn("dark mode preference unreadable", zap.Error(err))
			}

			model := tui.New(ctx, tui.Deps{
				Chat:     c.app.chat,
				Auth:     c.app.auth,
				Revealer: c.app.revealer,
				Log:      c.app.log.Named("tui"),
				Profile:  profile,
				Dark:     dark,
			})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("dashboard: %w", err)
			}
			return nil
		},
	}
}
