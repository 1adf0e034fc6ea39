package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
)

func TestNotificationService_List(t *testing.T) {
	repo := newMockNotificationRepo()
	repo.list = []*models.Notification{{ID: 2, UserID: 7}, {ID: 1, UserID: 7, ReadYet: true}}
	repo.unread = 1
	svc := NewNotificationService(repo, zap.NewNop())

	list, err := svc.List(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, list.Notifications, 2)
	assert.Equal(t, 1, list.UnreadCount)
}

func TestNotificationService_MarkRead(t *testing.T) {
	repo := newMockNotificationRepo()
	repo.list = []*models.Notification{{ID: 2, UserID: 7}}
	svc := NewNotificationService(repo, zap.NewNop())

	n, err := svc.MarkRead(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.True(t, n.ReadYet)

	_, err = svc.MarkRead(context.Background(), 8, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
