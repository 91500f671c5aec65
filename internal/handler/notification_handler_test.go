package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-cell-api/internal/middleware"
	"github.com/noah-isme/placement-cell-api/internal/models"
	"github.com/noah-isme/placement-cell-api/internal/service"
)

type fakeInbox struct {
	byAccount map[string][]models.Notification
	read      []string
	cleared   []string
}

func (f *fakeInbox) ListByAccount(ctx context.Context, accountID string) ([]models.Notification, error) {
	return f.byAccount[accountID], nil
}

func (f *fakeInbox) MarkRead(ctx context.Context, accountID, id string) error {
	f.read = append(f.read, id)
	return nil
}

func (f *fakeInbox) DeleteOne(ctx context.Context, accountID, id string) error {
	return nil
}

func (f *fakeInbox) DeleteAll(ctx context.Context, accountID string) error {
	f.cleared = append(f.cleared, accountID)
	return nil
}

func authedContext(t *testing.T, method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AccountID: "a1", Role: models.RoleStudent})
	return c, rec
}

func TestNotificationHandlerList(t *testing.T) {
	inbox := &fakeInbox{byAccount: map[string][]models.Notification{
		"a1": {{ID: "n1", AccountID: "a1", Kind: models.KindGeneric, Title: "Hello"}},
	}}
	handler := NewNotificationHandler(service.NewNotificationService(inbox, nil))

	c, rec := authedContext(t, http.MethodGet, "/notifications")
	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "n1", envelope.Data[0].ID)
}

func TestNotificationHandlerListUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNotificationHandler(service.NewNotificationService(&fakeInbox{}, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	inbox := &fakeInbox{}
	handler := NewNotificationHandler(service.NewNotificationService(inbox, nil))

	c, rec := authedContext(t, http.MethodPost, "/notifications/n1/read")
	c.Params = gin.Params{{Key: "id", Value: "n1"}}
	handler.MarkRead(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"n1"}, inbox.read)
}

func TestNotificationHandlerClear(t *testing.T) {
	inbox := &fakeInbox{}
	handler := NewNotificationHandler(service.NewNotificationService(inbox, nil))

	c, rec := authedContext(t, http.MethodDelete, "/notifications")
	handler.Clear(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"a1"}, inbox.cleared)
}
