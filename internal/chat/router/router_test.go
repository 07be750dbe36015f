package router

import (
	"net/http/httptest"
	"testing"

	"estate_chat_service/internal/chat/app"
	"estate_chat_service/pkg/config"
	"estate_chat_service/pkg/logger"
	"estate_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	logger.SetNewNop()
	r := fiber.New()
	RegisterRoutes(r,
		app.NewChatWebsocketHandler(nil, nil, app.NewPresenceRegistry(0), app.NewHub(), nil, config.WebSocketConfig{}),
		app.NewChatHTTPHandler(nil),
	)
	return r
}

func TestRegisterRoutes(t *testing.T) {
	r := newApp()

	resp, err := r.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = r.Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "token checked before upgrade")

	tk, err := token.GenerateJWT("buyer-1", string(token.RoleMember), "test")
	require.NoError(t, err)
	resp, err = r.Test(httptest.NewRequest("GET", "/ws?auth="+tk, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)

	resp, err = r.Test(httptest.NewRequest("GET", "/chat/unread", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
