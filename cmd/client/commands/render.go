package commands

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"onpointe/prevention/internal/app"
	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/navigation"
	"onpointe/prevention/internal/viewsync"
)

// Renderer prints the current screen when it differs from the last print.
type Renderer struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render prints the screen unless it is unchanged.
func (r *Renderer) Render(state app.State, v viewsync.View) {
	r.write(RenderScreen(state, v), false)
}

// Force prints the screen even when unchanged.
func (r *Renderer) Force(state app.State, v viewsync.View) {
	r.write(RenderScreen(state, v), true)
}

func (r *Renderer) write(text string, force bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !force && text == r.last {
		return
	}
	r.last = text
	fmt.Fprint(r.w, text)
}

// RenderScreen renders the parts of v the current screen shows.
func RenderScreen(state app.State, v viewsync.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n── %s ", screenTitle(state.Screen))
	if state.Email != "" {
		fmt.Fprintf(&b, "(%s, %s)", state.Email, roleLabel(state))
	}
	b.WriteString("\n")

	switch state.Screen {
	case navigation.ScreenAuth:
		b.WriteString("Sign in with: signin <email> <password>, or signup <email> <password>\n")
		line(&b, state.AuthMessage)
	case navigation.ScreenRole:
		b.WriteString("Choose your role: role pt [name] or role dancer [name]\n")
		line(&b, state.RoleMessage)
	case navigation.ScreenCheckIn:
		renderLoads(&b, v.Loads)
	case navigation.ScreenRoster:
		renderRoster(&b, v)
	case navigation.ScreenAvailability:
		renderAvailability(&b, v.Availability)
	case navigation.ScreenMessages:
		renderThreads(&b, v.Threads, v.Chat)
	case navigation.ScreenResults:
		renderResults(&b, state, v)
	}
	return b.String()
}

func screenTitle(s navigation.Screen) string {
	switch s {
	case navigation.ScreenAuth:
		return "Sign in"
	case navigation.ScreenRole:
		return "Role"
	case navigation.ScreenCheckIn:
		return "Daily check-in"
	case navigation.ScreenRoster:
		return "My dancers"
	case navigation.ScreenAvailability:
		return "Availability"
	case navigation.ScreenMessages:
		return "Messages"
	case navigation.ScreenResults:
		return "Results"
	}
	return string(s)
}

func roleLabel(state app.State) string {
	if state.Role == "" {
		return "no role"
	}
	return string(state.Role)
}

func line(b *strings.Builder, text string) {
	if text != "" {
		fmt.Fprintf(b, "%s\n", text)
	}
}

func renderRows(b *strings.Builder, rows []viewsync.CheckInRow) {
	for _, row := range rows {
		fmt.Fprintf(b, "  %s  %4.0f min × RPE %-4g load %-5d [%s] %s\n",
			row.Date, row.Minutes, row.RPE, row.Load, row.Severity, row.Summary)
		if row.ACWR != "" {
			fmt.Fprintf(b, "      %s\n", row.ACWR)
		}
		if row.NotesPreview != "" {
			fmt.Fprintf(b, "      “%s”\n", row.NotesPreview)
		}
	}
}

func renderLoads(b *strings.Builder, loads viewsync.LoadsView) {
	if loads.Loading {
		b.WriteString("Loading…\n")
	}
	renderRows(b, loads.Rows)
	line(b, loads.Message)
	b.WriteString("Save today's entry: checkin --minutes 90 --rpe 6 --fatigue 4 --sore 3 --sleep 7 --notes \"...\"\n")
}

func renderRoster(b *strings.Builder, v viewsync.View) {
	for _, e := range v.Roster.Entries {
		fmt.Fprintf(b, "  • %-24s %-28s %s\n", e.Label, e.Subtitle, e.DancerID)
	}
	line(b, v.Roster.Message)

	if v.Detail.DancerID != "" {
		fmt.Fprintf(b, "\n%s\n", v.Detail.Title)
		line(b, v.Detail.Status)
		renderRows(b, v.Detail.Rows)
	}

	b.WriteString("\nAlerts")
	if v.Alerts.Listening {
		b.WriteString(" (live)")
	}
	b.WriteString("\n")
	for _, a := range v.Alerts.Items {
		fmt.Fprintf(b, "  [%s] %s %s load %s: %s  (%s: review %s)\n",
			a.Severity, a.Date, a.DancerLabel, a.Load, a.Reasons, a.Action, a.AlertID)
	}
	line(b, v.Alerts.Message)
}

func renderAvailability(b *strings.Builder, av viewsync.AvailabilityView) {
	line(b, av.Subtitle)
	for _, s := range av.Slots {
		fmt.Fprintf(b, "  %s %s–%s %s", s.Date, s.Start, s.End, s.Note)
		if s.Deletable {
			fmt.Fprintf(b, "  (avail-del %s)", s.SlotID)
		}
		b.WriteString("\n")
	}
	line(b, av.Message)
}

func renderThreads(b *strings.Builder, threads viewsync.ThreadsView, chat viewsync.ChatView) {
	for _, t := range threads.Items {
		marker := " "
		if t.Active {
			marker = "▶"
		}
		fmt.Fprintf(b, " %s %-24s %-40s %s  (open %s)\n", marker, t.Label, t.Preview, t.UnreadBadge, t.ThreadID)
	}
	line(b, threads.Message)

	fmt.Fprintf(b, "\n%s\n", chat.Title)
	for _, m := range chat.Messages {
		who := "them"
		if m.Mine {
			who = "me"
		}
		fmt.Fprintf(b, "  %s %-4s %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Text)
	}
	if chat.State == viewsync.ChatListening {
		b.WriteString("Reply with: send <text>\n")
	}
}

func renderResults(b *strings.Builder, state app.State, v viewsync.View) {
	if v.Linking.Code != "" {
		fmt.Fprintf(b, "Link code: %s\n", v.Linking.Code)
	}
	line(b, v.Linking.Message)
	if v.Report.URL != "" {
		fmt.Fprintf(b, "Report for %s: %s\n", v.Report.DancerID, v.Report.URL)
	}
	line(b, v.Report.Message)
	if state.Role == domain.RoleDancer {
		renderLoads(b, v.Loads)
	}
}
