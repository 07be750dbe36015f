package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/pkg/middlewares"
	"estate_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPApp(uc ChatUseCase) *fiber.App {
	h := NewChatHTTPHandler(uc)
	app := fiber.New()
	app.Get("/", ConnectCheck)
	app.Post("/debug", DebugLogFlag)

	chat := app.Group("/chat", middlewares.JWTMiddleware())
	chat.Post("/rooms", h.StartOrGetRoom)
	chat.Get("/rooms", h.GetRoomSummaries)
	chat.Get("/rooms/:room_id/messages", h.GetHistory)
	chat.Get("/unread", h.GetUnreadCount)
	chat.Get("/unread/rooms", h.GetUnreadCountPerRoom)
	return app
}

func authHeader(t *testing.T, userID string) string {
	tk, err := token.GenerateJWT(userID, string(token.RoleMember), "test")
	require.NoError(t, err)
	return "Bearer " + tk
}

func call(t *testing.T, app *fiber.App, method, path, userID, body string) (int, []byte) {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader(t, userID))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestChatHTTPHandler(t *testing.T) {
	f := newChatFixture(t, WithClock(newStepClock().Now))
	require.NoError(t, f.db.Create(&domain.Property{ID: "prop-7", OwnerID: seller}).Error)
	app := newHTTPApp(f.uc)

	status, raw := call(t, app, "POST", "/chat/rooms", buyer, `{"property_id":"prop-7"}`)
	require.Equal(t, fiber.StatusOK, status, string(raw))
	var room domain.ChatRoom
	require.NoError(t, json.Unmarshal(raw, &room))
	assert.True(t, room.HasParticipant(seller))

	status, raw = call(t, app, "POST", "/chat/rooms", seller, fmt.Sprintf(`{"property_id":"prop-7","other_user_id":"%s"}`, buyer))
	require.Equal(t, fiber.StatusOK, status)
	var same domain.ChatRoom
	require.NoError(t, json.Unmarshal(raw, &same))
	assert.Equal(t, room.ID, same.ID)

	f.send(t, room.ID, seller, "welcome")

	status, raw = call(t, app, "GET", "/chat/rooms/"+room.ID+"/messages", buyer, "")
	require.Equal(t, fiber.StatusOK, status)
	var history []domain.ChatMessage
	require.NoError(t, json.Unmarshal(raw, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "welcome", history[0].Body)

	status, raw = call(t, app, "GET", "/chat/unread", buyer, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"unread":1}`, string(raw))

	status, raw = call(t, app, "GET", "/chat/unread/rooms", buyer, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, fmt.Sprintf(`{"%s":1}`, room.ID), string(raw))

	status, raw = call(t, app, "GET", "/chat/rooms", buyer, "")
	require.Equal(t, fiber.StatusOK, status)
	var summaries []domain.RoomSummary
	require.NoError(t, json.Unmarshal(raw, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, seller, summaries[0].OtherParticipant)
	assert.Equal(t, 1, summaries[0].UnreadCount)
}

func TestChatHTTPHandlerErrors(t *testing.T) {
	f := newChatFixture(t)
	app := newHTTPApp(f.uc)
	room := f.room(t, "prop-1", buyer, seller)

	status, _ := call(t, app, "GET", "/chat/unread", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, "GET", "/chat/rooms/"+room.ID+"/messages", other, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, app, "GET", "/chat/rooms/not-a-uuid/messages", buyer, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, app, "POST", "/chat/rooms", buyer, `{"property_id":"prop-404"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = call(t, app, "POST", "/chat/rooms", buyer, `{"property_id":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestStatusOf(t *testing.T) {
	cases := map[error]int{
		domain.ErrUnauthorized:    fiber.StatusForbidden,
		domain.ErrNotFound:        fiber.StatusNotFound,
		domain.ErrInvalidArgument: fiber.StatusBadRequest,
		domain.ErrConflict:        fiber.StatusConflict,
		domain.ErrUnavailable:     fiber.StatusServiceUnavailable,
		errors.New("other"):       fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusOf(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

func TestOpsHandlers(t *testing.T) {
	app := newHTTPApp(nil)

	status, raw := call(t, app, "GET", "/", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "chat service start!", string(raw))

	status, _ = call(t, app, "POST", "/debug?status=maybe", "", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, raw = call(t, app, "POST", "/debug?status=false", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), "false")
}
