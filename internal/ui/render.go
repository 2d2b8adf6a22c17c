package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"modqueue/internal/review"
)

// previewLimit truncates item bodies in the card view; 'e'/'c' panels show
// more.
const previewLimit = 300

// Age returns a display string for how old an item is.
func Age(created time.Time) string {
	if created.IsZero() {
		return ""
	}
	age := time.Since(created)
	switch {
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func actionBadge(a review.Action) string {
	switch a {
	case review.ActionApprove:
		return ApproveBadge.Render("APPROVE")
	case review.ActionRemove:
		return RemoveBadge.Render("REMOVE")
	default:
		return SkipBadge.Render("SKIP")
	}
}

// confidenceBar renders the 1..10 confidence as a small meter.
func confidenceBar(confidence int) string {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 10 {
		confidence = 10
	}
	return fmt.Sprintf("[%s%s] %d/10",
		strings.Repeat("█", confidence),
		strings.Repeat("░", 10-confidence),
		confidence)
}

// RenderItemCard renders one moderation item. focused controls the border;
// expanded shows the chat and reason panels.
func RenderItemCard(it *review.Item, focused, expanded bool, width int) string {
	var b strings.Builder

	title := it.Title
	if title == "" {
		title = truncate(it.Content, 50)
	}
	fmt.Fprintf(&b, "#%d  %s\n", it.Number, title)
	b.WriteString(MetaLine.Render(fmt.Sprintf("u/%s  ↑%d  %s  %s",
		it.Author, it.Score, Age(it.Created), it.Kind)))
	b.WriteString("\n")

	for _, r := range it.UserReports {
		b.WriteString(ReportLine.Render(fmt.Sprintf("⚑ %s (%d)", r.Reason, r.Count)))
		b.WriteString("\n")
	}
	for _, r := range it.ModReports {
		b.WriteString(ReportLine.Render(fmt.Sprintf("⛨ %s by %s", r.Reason, r.Moderator)))
		b.WriteString("\n")
	}
	if it.PriorRemoval != "" {
		b.WriteString(ReportLine.Render("previously removed: " + it.PriorRemoval))
		b.WriteString("\n")
	}

	if it.Content != "" {
		b.WriteString(truncate(it.Content, previewLimit))
		b.WriteString("\n")
	}

	b.WriteString(renderDecision(it))

	if expanded {
		b.WriteString(renderChat(it))
		if it.ReasonDraft != "" || it.ReasonWaiting {
			b.WriteString(renderReason(it))
		}
	}

	style := NormalCard
	if focused {
		style = FocusedCard
	}
	return style.Width(width - 2).Render(strings.TrimRight(b.String(), "\n"))
}

func renderDecision(it *review.Item) string {
	d := it.Decision
	switch d.Phase {
	case review.PhaseUnset:
		return MetaLine.Render("analyzing...") + "\n"
	case review.PhaseAIProposed:
		return fmt.Sprintf("%s %s  %s\n", actionBadge(d.Action), confidenceBar(d.Confidence), d.Reason)
	case review.PhaseHumanOverride:
		line := fmt.Sprintf("%s %s\n", actionBadge(d.Action), OverrideTag.Render("human override"))
		if d.Reason != "" {
			line += MetaLine.Render("AI said: "+d.Reason) + "\n"
		}
		return line
	case review.PhaseResolved:
		switch d.Outcome {
		case review.OutcomeError:
			return ResolvedErrTag.Render(fmt.Sprintf("✗ %s failed: %s", d.Action, d.Err)) + "\n"
		case review.OutcomeDryRun:
			return ResolvedTag.Render(fmt.Sprintf("[dry run] would %s", strings.ToLower(string(d.Action)))) + "\n"
		default:
			return ResolvedTag.Render(fmt.Sprintf("✓ %s completed", d.Action)) + "\n"
		}
	}
	return ""
}

func renderChat(it *review.Item) string {
	if len(it.Chat) == 0 && !it.ChatWaiting {
		return ""
	}
	var b strings.Builder
	b.WriteString(MetaLine.Render("── analyst chat ──"))
	b.WriteString("\n")
	for _, m := range it.Chat {
		if m.FromUser {
			b.WriteString(ChatUser.Render("you: " + m.Text))
		} else {
			b.WriteString(ChatAnalyst.Render("ai:  " + m.Text))
		}
		b.WriteString("\n")
	}
	if it.ChatWaiting {
		b.WriteString(MetaLine.Render("ai is thinking..."))
		b.WriteString("\n")
	}
	return b.String()
}

func renderReason(it *review.Item) string {
	var b strings.Builder
	b.WriteString(MetaLine.Render("── removal reason ──"))
	b.WriteString("\n")
	if it.ReasonWaiting {
		b.WriteString(MetaLine.Render("generating removal reason..."))
	} else {
		b.WriteString(it.ReasonDraft)
	}
	b.WriteString("\n")
	return b.String()
}

// RenderStatsBar renders the aggregate run counters.
func RenderStatsBar(stats review.Stats, width int) string {
	return CountsBar.Width(width).Render(fmt.Sprintf(
		"processed %d  ·  approved %d  ·  removed %d  ·  api calls %d",
		stats.Processed, stats.Approved, stats.Removed, stats.APICalls))
}

// RenderPendingBar renders the per-action review counters.
func RenderPendingBar(p review.PendingCounts, width int) string {
	return CountsBar.Width(width).Render(fmt.Sprintf(
		"%d to approve  ·  %d to remove  ·  %d to skip",
		p.Approve, p.Remove, p.Skip))
}

// logLine is one entry in the status log.
type logLine struct {
	text string
	kind string // "info", "success", "error"
}

// RenderLog renders the newest tail of the status log.
func RenderLog(lines []logLine, max int) string {
	if len(lines) > max {
		lines = lines[len(lines)-max:]
	}
	var b strings.Builder
	for _, l := range lines {
		switch l.kind {
		case "success":
			b.WriteString(LogSuccess.Render("✓ " + l.text))
		case "error":
			b.WriteString(LogError.Render("✗ " + l.text))
		default:
			b.WriteString(LogInfo.Render("· " + l.text))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderShortcuts is the '?' help overlay.
func RenderShortcuts(width int) string {
	help := `Keyboard shortcuts

 Actions              Navigation            Tools
 a  approve           j / ↓  next item      c  chat with analyst
 r  remove            k / ↑  previous item  e  edit removal reason
 s  skip                                    g  regenerate reason

 b  submit batch actions
 ?  close this help
 q  quit`
	return lipgloss.Place(width, lipgloss.Height(help)+2,
		lipgloss.Center, lipgloss.Center,
		HelpStyle.Render(help))
}
