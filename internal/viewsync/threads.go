package viewsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/realtime"
)

// RefreshThreads reloads the thread list. With no active thread the first
// thread in the returned order is opened.
func (s *Synchronizer) RefreshThreads(ctx context.Context) {
	s.mu.Lock()
	if s.session.UID == "" || s.session.Role == domain.RoleUnset {
		s.mu.Unlock()
		return
	}
	t := s.beginLocked("threads")
	s.view.Threads.Loading = true
	s.view.Threads.Message = ""
	s.mu.Unlock()
	s.notify()

	threads, err := s.backend.GetMyThreads(ctx)

	var (
		openFirst string
		closeChat bool
	)
	applied := s.finish(t, func(v *View) {
		v.Threads.Loading = false
		if err != nil {
			s.threads = nil
			v.Threads.Items = nil
			v.Threads.Message = err.Error()
			return
		}
		s.threads = append([]domain.ThreadSummary(nil), threads...)
		v.Threads.Items = s.threadRowsLocked()
		if len(threads) == 0 {
			v.Threads.Message = "No linked dancers yet."
			if s.session.Role == domain.RoleDancer {
				v.Threads.Message = "No thread yet. Ask your PT for a link code."
			}
			closeChat = true
			return
		}
		if s.activeThreadID == "" {
			openFirst = threads[0].ThreadID
		}
	})
	if !applied {
		return
	}

	switch {
	case closeChat:
		s.CloseThread()
	case openFirst != "":
		s.OpenThread(ctx, openFirst)
	}
}

// OpenThread makes threadID the active thread: the previous chat listener
// is detached before the new one attaches, then the thread is marked read
// and the list refreshed so unread counts converge.
func (s *Synchronizer) OpenThread(ctx context.Context, threadID string) {
	s.mu.Lock()
	if s.session.UID == "" || threadID == "" {
		s.mu.Unlock()
		return
	}
	epoch := s.epoch
	s.activeThreadID = threadID
	s.view.Chat = ChatView{
		State:    ChatListening,
		ThreadID: threadID,
		Title:    "Chat",
	}
	for _, th := range s.threads {
		if th.ThreadID == threadID {
			s.view.Chat.Title = s.threadLabelLocked(th)
		}
	}
	s.view.Threads.Items = s.threadRowsLocked()
	s.mu.Unlock()
	s.notify()

	attached := s.watch(epoch, func() {
		s.subs.WatchThread(threadID, func(update realtime.ChatUpdate) {
			s.applyChat(epoch, update)
		})
	})
	if !attached {
		return
	}

	if err := s.backend.MarkThreadRead(ctx, threadID); err != nil {
		s.logger.Debug("mark read failed", zap.String("threadId", threadID), zap.Error(err))
		return
	}
	s.RefreshThreads(ctx)
}

func (s *Synchronizer) applyChat(epoch uint64, update realtime.ChatUpdate) {
	s.mu.Lock()
	if epoch != s.epoch || update.ThreadID != s.activeThreadID {
		s.mu.Unlock()
		return
	}
	messages := make([]ChatMessage, 0, len(update.Messages))
	for _, m := range update.Messages {
		messages = append(messages, ChatMessage{
			ID:        m.ID,
			Text:      m.Text,
			Mine:      m.SenderUID == s.session.UID,
			CreatedAt: m.CreatedAt,
		})
	}
	s.view.Chat.Messages = messages
	s.view.Chat.ScrollToNewest = update.ScrollToNewest
	s.mu.Unlock()
	s.notify()
}

// CloseThread detaches the chat listener and empties the chat pane.
func (s *Synchronizer) CloseThread() {
	s.mu.Lock()
	s.activeThreadID = ""
	s.view.Chat = closedChat()
	if s.threads != nil {
		s.view.Threads.Items = s.threadRowsLocked()
	}
	s.mu.Unlock()

	s.subs.Detach(realtime.ChannelChat)
	s.notify()
}

// SendMessage posts text to the active thread. A send while another is in
// flight, blank text, or no active thread is ignored with ErrSendSkipped.
func (s *Synchronizer) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" || s.activeThreadID == "" || s.sending {
		s.mu.Unlock()
		return ErrSendSkipped
	}
	s.sending = true
	s.view.Chat.Sending = true
	threadID := s.activeThreadID
	epoch := s.epoch
	s.mu.Unlock()
	s.notify()

	err := s.backend.SendMessage(ctx, threadID, text)

	s.mu.Lock()
	if epoch == s.epoch {
		s.sending = false
		s.view.Chat.Sending = false
		if err != nil {
			s.view.Threads.Message = err.Error()
		}
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		return err
	}
	s.RefreshThreads(ctx)
	return nil
}

func (s *Synchronizer) threadRowsLocked() []ThreadRow {
	rows := make([]ThreadRow, 0, len(s.threads))
	for _, t := range s.threads {
		preview := t.LastMessageText
		if preview == "" {
			preview = "No messages yet"
		}
		row := ThreadRow{
			ThreadID:    t.ThreadID,
			PeerUID:     t.PeerUID,
			Label:       s.threadLabelLocked(t),
			Preview:     preview,
			UnreadCount: t.UnreadCount,
			Active:      t.ThreadID == s.activeThreadID,
		}
		if t.LastMessageAt > 0 {
			row.LastMessageAt = time.UnixMilli(t.LastMessageAt).UTC()
		}
		if t.UnreadCount > 0 {
			row.UnreadBadge = fmt.Sprintf("%d new", t.UnreadCount)
		}
		rows = append(rows, row)
	}
	return rows
}
