package domain

import "time"

// Thread is the stored conversation between exactly one dancer and one PT.
type Thread struct {
	ID              string         `bson:"_id,omitempty" json:"threadId"`
	DancerID        string         `bson:"dancerId" json:"dancerId"`
	PTID            string         `bson:"ptId" json:"ptId"`
	LastMessageText string         `bson:"lastMessageText" json:"lastMessageText"`
	LastMessageAt   time.Time      `bson:"lastMessageAt" json:"lastMessageAt"`
	Unread          map[string]int `bson:"unread,omitempty" json:"-"` // Keyed by viewer uid
	CreatedAt       time.Time      `bson:"createdAt" json:"createdAt"`
}

// Peer returns the other participant for viewer uid.
func (t *Thread) Peer(uid string) string {
	if t.DancerID == uid {
		return t.PTID
	}
	return t.DancerID
}

// Has reports whether uid participates in the thread.
func (t *Thread) Has(uid string) bool {
	return uid != "" && (t.DancerID == uid || t.PTID == uid)
}

// ThreadSummary is the viewer-specific projection returned by getMyThreads.
type ThreadSummary struct {
	ThreadID        string `json:"threadId"`
	PeerUID         string `json:"peerUid"`
	PeerName        string `json:"peerName,omitempty"`
	LastMessageText string `json:"lastMessageText"`
	LastMessageAt   int64  `json:"lastMessageAt"` // epoch millis
	UnreadCount     int    `json:"unreadCount"`
}

// Message belongs to exactly one thread and is immutable once created.
type Message struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ThreadID  string    `bson:"threadId" json:"threadId"`
	SenderUID string    `bson:"senderUid" json:"senderUid"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"` // Server-assigned
}
