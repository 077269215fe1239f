package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/studyhub/backend-go/internal/errors"
)

var messageColumns = []string{"id", "chat_id", "user_id", "role", "content", "created_at"}

func TestGetRecentMessagesReversed(t *testing.T) {
	db, mock := newMockDB(t)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// 数据库按时间倒序返回最近3条
	mock.ExpectQuery(`SELECT \* FROM "chat_messages"`).
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow(5, 1, 7, RoleUser, "newest", base.Add(2*time.Minute)).
			AddRow(4, 1, 7, RoleAssistant, "middle", base.Add(time.Minute)).
			AddRow(3, 1, 7, RoleUser, "oldest", base))

	svc := NewConversationService(db)
	messages, err := svc.GetRecentMessages(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	// 返回时按时间正序
	assert.Equal(t, "oldest", messages[0].Content)
	assert.Equal(t, "middle", messages[1].Content)
	assert.Equal(t, "newest", messages[2].Content)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecentMessagesZeroLimit(t *testing.T) {
	db, _ := newMockDB(t)

	svc := NewConversationService(db)
	messages, err := svc.GetRecentMessages(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Nil(t, messages)
}

func TestGetChatMessagesChronological(t *testing.T) {
	db, mock := newMockDB(t)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "chat_messages"`).
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow(1, 1, 7, RoleUser, "first", base).
			AddRow(2, 1, 7, RoleAssistant, "second", base.Add(time.Minute)))

	svc := NewConversationService(db)
	messages, err := svc.GetChatMessages(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
}

func TestGetChatNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "chats"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "created_at", "updated_at"}))

	svc := NewConversationService(db)
	_, err := svc.GetChat(context.Background(), 99, 7)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestListChats(t *testing.T) {
	db, mock := newMockDB(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "chats"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "created_at", "updated_at"}).
			AddRow(2, 7, "biology questions", now, now).
			AddRow(1, 7, "maths help", now.Add(-time.Hour), now.Add(-time.Hour)))

	svc := NewConversationService(db)
	chats, err := svc.ListChats(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "biology questions", chats[0].Title)
}
