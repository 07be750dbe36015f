package router

import (
	"context"

	"estate_chat_service/internal/chat/app"
	"estate_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册聊天相關的路由
// @title Estate Chat Service API
// @version 1.0
// @description Real-time buyer / seller chat of the property marketplace
// @host localhost:8083
// @BasePath /
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler, chatHTTP *app.ChatHTTPHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", app.ConnectCheck)
	r.Post("/debug", app.DebugLogFlag)

	ws := r.Group("/ws", middlewares.JWTMiddleware(), upgradeOnly)
	ws.Get("/", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	chat := r.Group("/chat", middlewares.JWTMiddleware())
	chat.Post("/rooms", chatHTTP.StartOrGetRoom)
	chat.Get("/rooms", chatHTTP.GetRoomSummaries)
	chat.Get("/rooms/:room_id/messages", chatHTTP.GetHistory)
	chat.Get("/unread", chatHTTP.GetUnreadCount)
	chat.Get("/unread/rooms", chatHTTP.GetUnreadCountPerRoom)
}

// upgradeOnly reject plain http on the websocket route
func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
