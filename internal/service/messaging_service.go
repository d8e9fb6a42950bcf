package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
)

const MaxMessageLength = 2000

// --- Error Definitions ---
var (
	ErrEmptyMessage    = errors.New("message text is required")
	ErrMessageTooLong  = errors.New("message is too long")
	ErrNotThreadMember = errors.New("not a participant of this thread")
)

// MessagingService serves the per-viewer thread list and the message writes.
type MessagingService interface {
	GetMyThreads(ctx context.Context, uid string) ([]domain.ThreadSummary, error)
	// Send stores the message and bumps the peer's unread count.
	Send(ctx context.Context, senderUID, threadID, text string) (*domain.Message, error)
	MarkRead(ctx context.Context, uid, threadID string) error
}

// messagingService implements the MessagingService interface.
type messagingService struct {
	threadRepo  repository.ThreadRepository
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	logger      *zap.Logger
}

// NewMessagingService creates a new instance of messagingService.
func NewMessagingService(
	threadRepo repository.ThreadRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) MessagingService {
	return &messagingService{
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

func (s *messagingService) GetMyThreads(ctx context.Context, uid string) ([]domain.ThreadSummary, error) {
	threads, err := s.threadRepo.GetByParticipant(ctx, uid)
	if err != nil {
		return nil, err
	}

	peerIDs := make([]string, 0, len(threads))
	for _, t := range threads {
		peerIDs = append(peerIDs, t.Peer(uid))
	}
	names := map[string]string{}
	if len(peerIDs) > 0 {
		peers, err := s.userRepo.GetByIDs(ctx, peerIDs)
		if err != nil {
			// Names are decoration; the list is still usable without them.
			s.logger.Warn("peer lookup failed", zap.String("uid", uid), zap.Error(err))
		}
		for _, p := range peers {
			names[p.ID] = p.Name
		}
	}

	summaries := make([]domain.ThreadSummary, 0, len(threads))
	for _, t := range threads {
		peer := t.Peer(uid)
		summary := domain.ThreadSummary{
			ThreadID:        t.ID,
			PeerUID:         peer,
			PeerName:        names[peer],
			LastMessageText: t.LastMessageText,
			UnreadCount:     t.Unread[uid],
		}
		if !t.LastMessageAt.IsZero() {
			summary.LastMessageAt = t.LastMessageAt.UnixMilli()
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *messagingService) Send(ctx context.Context, senderUID, threadID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(text)) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	thread, err := s.memberThread(ctx, senderUID, threadID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{ThreadID: thread.ID, SenderUID: senderUID, Text: text}
	if _, err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	at := msg.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := s.threadRepo.RecordMessage(ctx, thread.ID, thread.Peer(senderUID), text, at); err != nil {
		// The message is stored; only the thread summary lags.
		s.logger.Error("failed to update thread summary", zap.String("threadId", thread.ID), zap.Error(err))
	}
	return msg, nil
}

func (s *messagingService) MarkRead(ctx context.Context, uid, threadID string) error {
	thread, err := s.memberThread(ctx, uid, threadID)
	if err != nil {
		return err
	}
	return s.threadRepo.MarkRead(ctx, thread.ID, uid)
}

func (s *messagingService) memberThread(ctx context.Context, uid, threadID string) (*domain.Thread, error) {
	if threadID == "" {
		return nil, errors.New("thread ID is required")
	}
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotThreadMember
		}
		return nil, err
	}
	if !thread.Has(uid) {
		return nil, ErrNotThreadMember
	}
	return thread, nil
}
