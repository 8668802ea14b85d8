// Package chat implements conversations and their message streams. Chats are
// top-level documents; messages live in a per-chat sub-collection and are
// keyed by millisecond send time, so their ids sort chronologically.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kaiwa-dev/kaiwa/pkg/observability/logger"
	"github.com/kaiwa-dev/kaiwa/pkg/query"
	"github.com/kaiwa-dev/kaiwa/pkg/repository"
	"github.com/kaiwa-dev/kaiwa/pkg/session"
)

// ErrNotFound indicates the chat id does not exist.
var ErrNotFound = errors.New("chat not found")

// Collection is the logical collection chats live in.
var Collection = repository.NewCollection("chat")

const messageSub = "messages"

// Chat is one conversation document.
type Chat struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Message is one entry in a chat's message stream.
type Message struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatId"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Page is one page of a chat listing.
type Page struct {
	Size      int
	Page      int
	Total     int64
	PageCount int
	Rows      []Chat
}

// Service implements chat operations on top of the document repository. The
// session cache holds each chat's member list for the realtime layer.
type Service struct {
	repo  *repository.Repository
	cache session.Cache
	log   logger.Logger
	now   func() time.Time
}

// NewService creates a chat Service.
func NewService(repo *repository.Repository, cache session.Cache, log logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("session cache is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   time.Now,
	}, nil
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create opens a chat with the given opening message.
func (s *Service) Create(ctx context.Context, message string) (Chat, error) {
	doc, err := s.repo.Create(ctx, Collection, repository.Document{
		"message": message,
	}, repository.CreateOptions{DocumentID: "CHAT-" + uuid.NewString()})
	if err != nil {
		return Chat{}, fmt.Errorf("failed to create chat: %w", err)
	}
	return chatFromDocument(doc), nil
}

// FindByID fetches a chat by id.
func (s *Service) FindByID(ctx context.Context, id string) (Chat, bool, error) {
	doc, found, err := s.repo.FindByID(ctx, Collection, id)
	if err != nil {
		return Chat{}, false, fmt.Errorf("failed to find chat: %w", err)
	}
	if !found {
		return Chat{}, false, nil
	}
	return chatFromDocument(doc), true, nil
}

// FindOne returns the first chat matching the composite query.
func (s *Service) FindOne(ctx context.Context, q query.ConditionalQuery) (Chat, bool, error) {
	doc, found, err := s.repo.ConditionalFindOne(ctx, Collection, q)
	if err != nil {
		return Chat{}, false, fmt.Errorf("failed to query chats: %w", err)
	}
	if !found {
		return Chat{}, false, nil
	}
	return chatFromDocument(doc), true, nil
}

// FindAll returns every chat matching the composite query.
func (s *Service) FindAll(ctx context.Context, q query.ConditionalQuery) ([]Chat, error) {
	docs, err := s.repo.ConditionalFindAll(ctx, Collection, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	chats := make([]Chat, len(docs))
	for i, doc := range docs {
		chats[i] = chatFromDocument(doc)
	}
	return chats, nil
}

// FindPaged returns one page of the chat listing.
func (s *Service) FindPaged(ctx context.Context, q query.ConditionalQuery) (Page, error) {
	page, err := s.repo.ConditionalFindPaged(ctx, Collection, q)
	if err != nil {
		return Page{}, fmt.Errorf("failed to page chats: %w", err)
	}
	rows := make([]Chat, len(page.Rows))
	for i, doc := range page.Rows {
		rows[i] = chatFromDocument(doc)
	}
	return Page{
		Size:      page.Size,
		Page:      page.Page,
		Total:     page.Total,
		PageCount: page.PageCount,
		Rows:      rows,
	}, nil
}

// InitChat opens a chat and writes its first message in one call.
func (s *Service) InitChat(ctx context.Context, chatMessage, firstMessage string) (Chat, error) {
	chatID := "CHAT-" + uuid.NewString()
	doc, err := s.repo.Create(ctx, Collection, repository.Document{
		"message": chatMessage,
	}, repository.CreateOptions{DocumentID: chatID})
	if err != nil {
		return Chat{}, fmt.Errorf("failed to create chat: %w", err)
	}
	if _, err := s.createMessage(ctx, chatID, firstMessage); err != nil {
		return Chat{}, err
	}
	return chatFromDocument(doc), nil
}

// AddMessage appends a message to an existing chat.
func (s *Service) AddMessage(ctx context.Context, chatID, message string) (Message, error) {
	if _, found, err := s.FindByID(ctx, chatID); err != nil {
		return Message{}, err
	} else if !found {
		return Message{}, fmt.Errorf("%w: %s", ErrNotFound, chatID)
	}
	return s.createMessage(ctx, chatID, message)
}

// FindAllMessages returns a chat's messages in send order.
func (s *Service) FindAllMessages(ctx context.Context, chatID string) ([]Message, error) {
	docs, err := s.repo.FindAll(ctx, Collection.Sub(chatID, messageSub), query.Query{
		Order: []query.Order{query.OrderBy("createdAt", query.Asc)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query messages of %s: %w", chatID, err)
	}
	messages := make([]Message, len(docs))
	for i, doc := range docs {
		messages[i] = messageFromDocument(doc)
	}
	return messages, nil
}

// SetMembers caches the chat's member list for the realtime layer.
func (s *Service) SetMembers(ctx context.Context, chatID string, userIDs []string) error {
	if err := s.cache.Set(ctx, session.ChatUsersKey(chatID), userIDs); err != nil {
		return fmt.Errorf("failed to cache members of %s: %w", chatID, err)
	}
	return nil
}

// Members returns the cached member list, or found=false when none is cached.
func (s *Service) Members(ctx context.Context, chatID string) ([]string, bool, error) {
	var userIDs []string
	found, err := s.cache.Get(ctx, session.ChatUsersKey(chatID), &userIDs)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read members of %s: %w", chatID, err)
	}
	return userIDs, found, nil
}

func (s *Service) createMessage(ctx context.Context, chatID, message string) (Message, error) {
	doc, err := s.repo.Create(ctx, Collection.Sub(chatID, messageSub), repository.Document{
		"message": message,
	}, repository.CreateOptions{
		DocumentID: strconv.FormatInt(s.now().UnixMilli(), 10),
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to create message in %s: %w", chatID, err)
	}
	return messageFromDocument(doc), nil
}

func chatFromDocument(doc repository.Document) Chat {
	return Chat{
		ID:        asString(doc["id"]),
		Message:   asString(doc["message"]),
		CreatedAt: asInt64(doc["createdAt"]),
		UpdatedAt: asInt64(doc["updatedAt"]),
	}
}

func messageFromDocument(doc repository.Document) Message {
	return Message{
		ID:        asString(doc["id"]),
		ChatID:    asString(doc["parentId"]),
		Message:   asString(doc["message"]),
		CreatedAt: asInt64(doc["createdAt"]),
		UpdatedAt: asInt64(doc["updatedAt"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
