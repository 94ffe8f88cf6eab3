package repository

import (
	"context"
	"time"

	"github.com/m-mizutani/recap/pkg/model"
)

// MessageStore defines read access to the local message database
type MessageStore interface {
	// ResolveChat returns ID of the first chat whose display name contains fragment.
	// It returns an error wrapping model.ErrChatNotFound if nothing matches.
	ResolveChat(ctx context.Context, fragment string) (model.ChatID, error)

	// ListMessages retrieves text messages of the chat sent at or after since, oldest first
	ListMessages(ctx context.Context, chatID model.ChatID, since time.Time) ([]*model.Message, error)

	// ListChats retrieves chats whose display name contains fragment
	ListChats(ctx context.Context, fragment string) ([]*model.Chat, error)
}
