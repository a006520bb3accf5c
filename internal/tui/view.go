package tui

import (
	"fmt"
	"strings"

	"edubot/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.styles.Header.Render("EduBot")
	if m.profile != nil {
		header += m.styles.Muted.Render(fmt.Sprintf("  %s (%s)", m.profile.Email, m.profile.Role))
	}

	var body string
	if m.mode == modeNewThread {
		body = m.renderForm()
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderThreads(), m.renderChat())
	}

	footer := m.help.View(m.keys)
	if line := m.statusLine(); line != "" {
		footer = line + "\n" + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) statusLine() string {
	s := m.dash.State()
	switch {
	case s.Error != "":
		return m.styles.Error.Render(s.Error)
	case m.status != "":
		return m.styles.Muted.Render(m.status)
	}
	return ""
}

func (m Model) renderThreads() string {
	s := m.dash.State()
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("Threads"))
	b.WriteString("\n")

	if len(s.Threads) == 0 {
		b.WriteString(m.styles.Muted.Render("No threads yet. Press n."))
	}
	for i, th := range s.Threads {
		style := m.styles.ThreadItem
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		if s.Active != nil && s.Active.ThreadID == th.ThreadID {
			style = m.styles.ThreadCurrent
		}
		b.WriteString(style.Render(prefix + truncate(th.Topic, threadPanelWidth-6)))
		b.WriteString("\n")
		meta := fmt.Sprintf("    Class %s · %s", th.Class, th.Subject)
		if t := th.Updated(); !t.IsZero() {
			meta += " · " + t.Local().Format("Jan 2")
		}
		b.WriteString(m.styles.ThreadMeta.Render(truncate(meta, threadPanelWidth-2)))
		b.WriteString("\n")
	}

	panel := m.styles.Panel
	if m.focus == focusThreads {
		panel = m.styles.FocusedPanel
	}
	return panel.Width(threadPanelWidth).Height(m.viewport.Height + inputHeight).Render(b.String())
}

func (m Model) renderChat() string {
	s := m.dash.State()

	title := "Select a thread or press n to start one"
	if s.Active != nil {
		title = fmt.Sprintf("%s · Class %s · %s", s.Active.Topic, s.Active.Class, s.Active.Subject)
	}

	input := m.input.View()
	if s.Sending {
		input = m.spinner.View() + " thinking..."
	}

	panel := m.styles.Panel
	inputPanel := m.styles.Input
	if m.focus == focusInput {
		inputPanel = m.styles.FocusedPanel
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		panel.Width(m.viewport.Width+2).Render(m.styles.Header.Render(title)+"\n"+m.viewport.View()),
		inputPanel.Width(m.viewport.Width+2).Render(input),
	)
}

func (m Model) renderTranscript() string {
	s := m.dash.State()
	if s.Active == nil {
		return m.styles.Muted.Render("No thread open.")
	}
	if s.Loading {
		return m.styles.Muted.Render("Loading messages...")
	}
	if len(s.Messages) == 0 {
		return m.styles.Muted.Render("No messages yet. Ask your first question.")
	}

	var b strings.Builder
	for _, msg := range s.Messages {
		switch msg.Sender {
		case domain.SenderUser:
			b.WriteString(m.styles.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(msg.Message)
			b.WriteString("\n\n")
		default:
			b.WriteString(m.styles.AILabel.Render("EduBot"))
			b.WriteString("\n")
			if msg.Streaming {
				b.WriteString(msg.Message + "▍")
				b.WriteString("\n\n")
			} else {
				b.WriteString(m.renderMarkdown(msg.Message))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// renderMarkdown falls back to the raw text if glamour fails or panics.
func (m Model) renderMarkdown(content string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = content + "\n"
		}
	}()
	if m.renderer == nil || content == "" {
		return content + "\n"
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return rendered
}

func (m Model) renderForm() string {
	f := m.form
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("New thread"))
	b.WriteString("\n\n")

	b.WriteString(m.formRow(stepClass, "Class", "Class "+f.class()))
	b.WriteString(m.formRow(stepSubject, "Subject", f.subject()))

	if f.step == stepTopic {
		b.WriteString(m.styles.UserLabel.Render("Topic"))
		b.WriteString("\n")
		switch {
		case f.loading && len(f.topics) == 0:
			b.WriteString("  " + m.spinner.View() + " loading topics...\n")
		case len(f.topics) == 0:
			b.WriteString(m.styles.Muted.Render("  No topics uploaded yet for this subject."))
			b.WriteString("\n")
		}
		for i, t := range f.topics {
			prefix := "  "
			if i == f.topicIdx {
				prefix = "> "
			}
			b.WriteString(prefix + t + "\n")
		}
		b.WriteString("\n" + f.custom.View() + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("↑/↓ choose · enter next · esc cancel"))
	return m.styles.FocusedPanel.Width(max(m.width-4, 30)).Render(b.String())
}

func (m Model) formRow(step formStep, label, value string) string {
	if m.form.step < step {
		return ""
	}
	marker := "  "
	if m.form.step == step {
		marker = "◂ ▸"
	}
	return fmt.Sprintf("%s\n  %s %s\n\n", m.styles.UserLabel.Render(label), value, m.styles.Muted.Render(marker))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
