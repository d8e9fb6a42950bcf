package viewsync

import (
	"time"

	"onpointe/prevention/internal/domain"
)

// View is everything presentation needs. Slices are replaced, never
// mutated in place, so a View handed out stays stable.
type View struct {
	Roster       RosterView
	Detail       DetailView
	Loads        LoadsView
	Availability AvailabilityView
	Threads      ThreadsView
	Chat         ChatView
	Alerts       AlertsView
	Linking      LinkingView
	Report       ReportView
}

type RosterView struct {
	Entries []RosterEntry
	Message string
	Loading bool
}

type RosterEntry struct {
	DancerID string
	Label    string
	Subtitle string
}

// CheckInRow is one annotated check-in.
type CheckInRow struct {
	Date         string
	Minutes      float64
	RPE          float64
	Load         int
	Severity     domain.Severity
	Rationale    string
	Summary      string // what the dancer's own list shows under the row
	NotesPreview string
	ACWR         string
}

// DetailView is a PT's look at one dancer's recent check-ins.
type DetailView struct {
	DancerID string
	Title    string
	Status   string
	Rows     []CheckInRow
	Loading  bool
}

type LoadsView struct {
	Rows    []CheckInRow
	Message string
	Loading bool
}

type AvailabilityView struct {
	Subtitle string
	Slots    []SlotRow
	Message  string
	Loading  bool
}

type SlotRow struct {
	SlotID    string
	Date      string
	Start     string
	End       string
	Note      string
	Deletable bool
}

type ThreadsView struct {
	Items   []ThreadRow
	Message string
	Loading bool
}

type ThreadRow struct {
	ThreadID      string
	PeerUID       string
	Label         string
	Preview       string
	LastMessageAt time.Time
	UnreadCount   int
	UnreadBadge   string
	Active        bool
}

// ChatState is the state of the active thread's chat pane.
type ChatState string

const (
	ChatClosed    ChatState = "closed"
	ChatListening ChatState = "listening"
)

type ChatView struct {
	State          ChatState
	ThreadID       string
	Title          string
	Messages       []ChatMessage
	ScrollToNewest bool
	Sending        bool
}

type ChatMessage struct {
	ID        string
	Text      string
	Mine      bool
	CreatedAt time.Time
}

type AlertsView struct {
	Items     []AlertRow
	Message   string
	Listening bool
}

type AlertRow struct {
	AlertID     string
	DancerUID   string
	DancerLabel string
	Date        string
	Load        string
	Severity    domain.Severity
	Reasons     string
	Reviewed    bool
	Action      string
}

type LinkingView struct {
	Code    string
	Message string
}

type ReportView struct {
	DancerID string
	URL      string
	Message  string
}

func closedChat() ChatView {
	return ChatView{State: ChatClosed, Title: "Select a conversation"}
}
