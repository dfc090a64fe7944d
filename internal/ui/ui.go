// Package ui renders adv records for the terminal.
package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/doree-nobuu/adventures/internal/stats"
	"github.com/doree-nobuu/adventures/internal/syncer"
	"github.com/doree-nobuu/adventures/internal/types"
)

// DateLayout is used for every date shown to the user.
const DateLayout = "Jan 2, 2006"

// Theme holds the styles for one output stream.
type Theme struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Accent  lipgloss.Style
	Badge   lipgloss.Style
}

// NewTheme returns a theme for w. Colors are dropped when color is false
// or NO_COLOR is set.
func NewTheme(w io.Writer, color bool) *Theme {
	r := lipgloss.NewRenderer(w)
	if !color || termenv.EnvNoColor() {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Theme{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("245")),
		Success: r.NewStyle().Foreground(lipgloss.Color("42")),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		Accent:  r.NewStyle().Foreground(lipgloss.Color("111")),
		Badge:   r.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("97")).Padding(0, 1),
	}
}

var categoryIcons = map[types.Category]string{
	types.CategoryTravel:    "✈️",
	types.CategoryFood:      "🍽️",
	types.CategoryActivity:  "🎯",
	types.CategoryMilestone: "🎉",
	types.CategoryDateNight: "💕",
	types.CategoryHome:      "🏠",
	types.CategoryCustom:    "✨",
}

// CategoryIcon returns the emoji for c.
func CategoryIcon(c types.Category) string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return "✨"
}

// Stars renders a 1-5 rating.
func Stars(rating *int) string {
	if rating == nil {
		return ""
	}
	return strings.Repeat("★", *rating) + strings.Repeat("☆", 5-*rating)
}

// Date formats an optional date.
func Date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// AdventureLine is the one-line list entry for an adventure. A surprise
// that is not revealed yet hides its title.
func (th *Theme) AdventureLine(a types.Adventure) string {
	title := a.Title
	if a.IsSurprise && !a.Revealed {
		title = "🎁 Surprise adventure"
	}
	parts := []string{
		th.Muted.Render(fmt.Sprintf("#%-3d", a.ID)),
		CategoryIcon(a.Category),
		th.statusStyle(a.Status).Render(fmt.Sprintf("%-11s", a.Status)),
		title,
	}
	if a.TargetDate != nil && a.Status != types.StatusCompleted {
		parts = append(parts, th.Muted.Render("→ "+Date(a.TargetDate)))
	}
	if a.IsCompleted() {
		if s := Stars(a.Rating); s != "" {
			parts = append(parts, th.Warn.Render(s))
		}
	}
	if a.AssignedTo != types.Both {
		parts = append(parts, th.Accent.Render(a.AssignedTo.Label()))
	}
	return strings.Join(parts, " ")
}

func (th *Theme) statusStyle(s types.Status) lipgloss.Style {
	switch s {
	case types.StatusCompleted:
		return th.Success
	case types.StatusInProgress, types.StatusPlanned:
		return th.Accent
	default:
		return th.Muted
	}
}

// AdventureDetail renders every field of an adventure.
func (th *Theme) AdventureDetail(a types.Adventure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", CategoryIcon(a.Category), th.Title.Render(a.Title))
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %-12s %s\n", th.Muted.Render(label+":"), value)
		}
	}
	row("ID", fmt.Sprint(a.ID))
	row("Category", a.CategoryLabel())
	row("Status", string(a.Status))
	row("Assigned to", a.AssignedTo.Label())
	row("Created by", a.CreatedBy.Label())
	row("Description", a.Description)
	row("Target", Date(a.TargetDate))
	row("Completed", Date(a.CompletedDate))
	row("Rating", Stars(a.Rating))
	row("Review", a.Review)
	row("Location", a.Location)
	if a.EstimatedCost != nil {
		row("Cost", fmt.Sprintf("%.2f", *a.EstimatedCost))
	}
	row("Notes", a.Notes)
	if a.IsSurprise {
		row("Surprise", fmt.Sprintf("revealed=%t", a.Revealed))
	}
	for i, p := range a.Photos {
		row(fmt.Sprintf("Photo %d", i), shorten(p, 60))
	}
	for _, c := range a.Comments {
		fmt.Fprintf(&b, "  %s %s: %s %s\n", c.Author.Icon(), c.Author.Label(), c.Text, th.Muted.Render("("+c.ID+")"))
	}
	return b.String()
}

// SurpriseLine is the one-line list entry for a surprise.
func (th *Theme) SurpriseLine(s types.Surprise) string {
	state := th.Warn.Render("sealed")
	if s.Revealed {
		state = th.Success.Render("revealed")
	}
	line := fmt.Sprintf("%s %s %s", th.Muted.Render(fmt.Sprintf("#%-3d", s.ID)), s.Title(), state)
	if s.Revealed && s.Message != "" {
		line += " " + th.Muted.Render("“"+s.Message+"”")
	}
	return line
}

// TaskLine is the one-line list entry for a task.
func (th *Theme) TaskLine(t types.Task) string {
	return fmt.Sprintf("%s %-11s %-6s %s", th.Muted.Render(fmt.Sprintf("#%-3d", t.ID)), t.Status, t.Priority, t.Title)
}

// Status renders the connection indicator.
func (th *Theme) Status(st syncer.Status) string {
	if st.Connected {
		return th.Success.Render("● ") + st.Message
	}
	return th.Warn.Render("○ ") + st.Message
}

// Stats renders the aggregate statistics block.
func (th *Theme) Stats(st stats.Stats) string {
	var b strings.Builder
	fmt.Fprintln(&b, th.Title.Render("Our adventures"))
	fmt.Fprintf(&b, "  Completed      %d of %d\n", st.CompletedAdventures, st.TotalAdventures)
	fmt.Fprintf(&b, "  Current streak %d day(s)\n", st.CurrentStreak)
	fmt.Fprintf(&b, "  Longest streak %d day(s)\n", st.LongestStreak)
	if st.AverageRating > 0 {
		fmt.Fprintf(&b, "  Average rating %.1f\n", st.AverageRating)
	}
	fmt.Fprintf(&b, "  Photos         %d\n", st.TotalPhotos)
	fmt.Fprintf(&b, "  Surprises      %d (%d sealed)\n", st.Surprises, st.UnrevealedSurprises)
	fmt.Fprintf(&b, "  By partner     %s %d  %s %d  together %d\n",
		types.Partner1.Label(), st.ByPartner.Partner1,
		types.Partner2.Label(), st.ByPartner.Partner2,
		st.ByPartner.Both)

	cats := make([]types.Category, 0, len(st.ByCategory))
	for c := range st.ByCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		fmt.Fprintf(&b, "    %s %-10s %d\n", CategoryIcon(c), c, st.ByCategory[c])
	}
	return b.String()
}

// Achievement renders one catalog entry.
func (th *Theme) Achievement(a types.Achievement) string {
	if a.UnlockedAt == nil {
		return th.Muted.Render(fmt.Sprintf("🔒 %s: %s", a.Name, a.Description))
	}
	return fmt.Sprintf("%s %s: %s %s", a.Icon, th.Badge.Render(a.Name), a.Description,
		th.Muted.Render("("+a.UnlockedAt.Format(DateLayout)+")"))
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
