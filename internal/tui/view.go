package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/signalfromnoise/internal/wizard"
)

// zipRatio is the expected compressed size relative to the raw total.
const zipRatio = 0.85

func (a *App) View() string {
	m := a.rt.Model()
	var body string
	switch m.Step {
	case wizard.StepCategories:
		body = a.viewCategories(m)
	case wizard.StepDashboard:
		body = a.viewDashboard(m)
	default:
		body = a.viewRequests(m)
	}

	sections := []string{
		titleStyle.Render("Signal from Noise"),
		subtitleStyle.Render(stepTrail(m.Step)),
		"",
		body,
		"",
		a.viewStatus(m),
		a.help.View(a.keys.forStep(m.Step)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func stepTrail(current wizard.Step) string {
	steps := []wizard.Step{wizard.StepRequest, wizard.StepCategories, wizard.StepDashboard}
	parts := make([]string, 0, len(steps))
	for i, s := range steps {
		label := fmt.Sprintf("%d. %s", i+1, s)
		if s == current {
			label = selectedStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, dimStyle.Render(" > "))
}

func (a *App) viewRequests(m wizard.Model) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Select a production request"))
	b.WriteString("\n")
	if a.filtering || a.filter != "" {
		prompt := "/" + a.filter
		if a.filtering {
			prompt += "_"
		}
		b.WriteString(infoStyle.Render(prompt))
		b.WriteString("\n")
	}
	if m.Loading.Requests {
		b.WriteString(a.spinner.View() + " loading requests")
		return b.String()
	}
	visible := a.visibleRequests()
	if len(visible) == 0 {
		if len(m.Requests) == 0 {
			b.WriteString(dimStyle.Render("no production requests"))
		} else {
			b.WriteString(dimStyle.Render("no requests match the filter"))
		}
		return b.String()
	}
	for i, r := range visible {
		prefix := "  "
		title := r.Title
		if i == a.reqCursor {
			prefix = cursorStyle.Render("> ")
			title = selectedStyle.Render(title)
		}
		line := prefix + title
		if r.Description != "" {
			line += "  " + dimStyle.Render(truncate(r.Description, 60))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) viewCategories(m wizard.Model) string {
	var b strings.Builder
	if r, ok := m.SelectedRequest(); ok {
		b.WriteString(headerStyle.Render(r.Title))
	} else {
		b.WriteString(headerStyle.Render("Select categories"))
	}
	b.WriteString("\n")
	if m.Loading.Categories {
		b.WriteString(a.spinner.View() + " loading categories\n")
	}
	for i, c := range m.AvailableCategories {
		prefix := "  "
		if i == a.catCursor {
			prefix = cursorStyle.Render("> ")
		}
		box := "[ ]"
		label := string(c)
		if m.SelectedCategories.Has(c) {
			box = okStyle.Render("[x]")
			label = selectedStyle.Render(label)
		}
		line := fmt.Sprintf("%s%s %s", prefix, box, label)
		if n, ok := m.CategoryCounts[c]; ok {
			line += " " + countStyle.Render(fmt.Sprintf("(%d)", n))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	selected := fmt.Sprintf("%d selected", m.SelectedCategories.Len())
	if !m.CanRequestFiles() {
		selected = dimStyle.Render(selected)
	}
	b.WriteString(selected)
	return b.String()
}

func (a *App) viewDashboard(m wizard.Model) string {
	var b strings.Builder
	title := "Results"
	if r, ok := m.SelectedRequest(); ok {
		title = r.Title
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	if m.Loading.Files {
		b.WriteString(a.spinner.View() + " loading files")
		return b.String()
	}

	total := totalSize(m.Files)
	stats := []string{
		fmt.Sprintf("files %s", countStyle.Render(fmt.Sprint(m.TotalCount))),
		fmt.Sprintf("categories %s", countStyle.Render(strings.Join(wizard.Tokens(m.SelectedCategories.Slice()), ", "))),
		fmt.Sprintf("size %s", countStyle.Render(formatBytes(total))),
		fmt.Sprintf("zip ~%s", countStyle.Render(formatBytes(int64(float64(total)*zipRatio)))),
	}
	if m.TotalPages > 1 {
		stats = append(stats, fmt.Sprintf("page %d/%d", m.Page, m.TotalPages))
	}
	b.WriteString(boxStyle.Render(strings.Join(stats, "   ")))
	b.WriteString("\n")

	if len(m.Files) == 0 {
		b.WriteString(dimStyle.Render("no files match the selection"))
		return b.String()
	}
	rows := m.Files
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	for i, f := range rows {
		prefix := "  "
		name := f.Filename
		if i == a.fileCursor {
			prefix = cursorStyle.Render("> ")
			name = selectedStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s%-10s %-6s %s %s\n",
			prefix, fileDate(f), f.Category, name, dimStyle.Render(truncate(f.Path, 50)))
	}
	if len(m.Files) > maxRows {
		b.WriteString(dimStyle.Render(fmt.Sprintf("... %d more", len(m.Files)-maxRows)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) viewStatus(m wizard.Model) string {
	switch {
	case m.Err != nil:
		return errorStyle.Render(m.Err.String()) + dimStyle.Render("  (x to dismiss)")
	case m.Exporting:
		return a.spinner.View() + " creating zip"
	case m.LastExport != nil && m.LastExport.Success:
		return okStyle.Render("zip created: " + m.LastExport.ZipPath)
	case a.status != "":
		return warnStyle.Render(a.status)
	}
	return ""
}

func totalSize(files []wizard.FileRecord) int64 {
	var total int64
	for _, f := range files {
		switch v := f.Extra["size"].(type) {
		case int64:
			total += v
		case int:
			total += int64(v)
		case float64:
			total += int64(v)
		}
	}
	return total
}

func fileDate(f wizard.FileRecord) string {
	s, _ := f.Extra["date"].(string)
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
