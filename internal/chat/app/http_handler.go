package app

import (
	"errors"
	"fmt"
	"strconv"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/pkg/logger"
	"estate_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ChatHTTPHandler request / response endpoints of the chat
type ChatHTTPHandler struct {
	chat ChatUseCase
}

// NewChatHTTPHandler create ChatHTTPHandler
func NewChatHTTPHandler(chat ChatUseCase) *ChatHTTPHandler {
	return &ChatHTTPHandler{chat: chat}
}

// StartRoomReq start-or-get-room body
type StartRoomReq struct {
	PropertyID  string `json:"property_id"`
	OtherUserID string `json:"other_user_id,omitempty"`
}

// UnreadCountRes unread total
type UnreadCountRes struct {
	Unread int `json:"unread"`
}

// ErrorRes error body
type ErrorRes struct {
	Error string `json:"error"`
}

// StartOrGetRoom godoc
// @Summary Start or get a chat room
// @Description Returns the room of the property between the caller and the other user, created on first contact. Without other_user_id the listing owner is used.
// @Tags Chat
// @Accept json
// @Produce json
// @Param auth query string true "JWT"
// @Param body body StartRoomReq true "property and counterpart"
// @Success 200 {object} domain.ChatRoom
// @Failure 400 {object} ErrorRes "Bad Request"
// @Failure 404 {object} ErrorRes "Property not found"
// @Router /chat/rooms [post]
func (h *ChatHTTPHandler) StartOrGetRoom(c *fiber.Ctx) error {
	var req StartRoomReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorRes{Error: "invalid body"})
	}

	room, err := h.chat.StartOrGetRoom(c.UserContext(), req.PropertyID, middlewares.MemberID(c), req.OtherUserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(room)
}

// GetRoomSummaries godoc
// @Summary List chat rooms
// @Description Rooms of the caller with counterpart, last message and unread count, latest activity first.
// @Tags Chat
// @Produce json
// @Param auth query string true "JWT"
// @Success 200 {array} domain.RoomSummary
// @Router /chat/rooms [get]
func (h *ChatHTTPHandler) GetRoomSummaries(c *fiber.Ctx) error {
	summaries, err := h.chat.RoomSummaries(c.UserContext(), middlewares.MemberID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summaries)
}

// GetHistory godoc
// @Summary Room history
// @Description Every message of the room oldest first, reactions embedded.
// @Tags Chat
// @Produce json
// @Param auth query string true "JWT"
// @Param room_id path string true "Room ID"
// @Success 200 {array} domain.ChatMessage
// @Failure 403 {object} ErrorRes "Not a participant"
// @Failure 404 {object} ErrorRes "Room not found"
// @Router /chat/rooms/{room_id}/messages [get]
func (h *ChatHTTPHandler) GetHistory(c *fiber.Ctx) error {
	msgs, err := h.chat.GetHistory(c.UserContext(), c.Params("room_id"), middlewares.MemberID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(msgs)
}

// GetUnreadCount godoc
// @Summary Unread count
// @Tags Chat
// @Produce json
// @Param auth query string true "JWT"
// @Success 200 {object} UnreadCountRes
// @Router /chat/unread [get]
func (h *ChatHTTPHandler) GetUnreadCount(c *fiber.Ctx) error {
	n, err := h.chat.UnreadCount(c.UserContext(), middlewares.MemberID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(UnreadCountRes{Unread: n})
}

// GetUnreadCountPerRoom godoc
// @Summary Unread count per room
// @Tags Chat
// @Produce json
// @Param auth query string true "JWT"
// @Success 200 {object} map[string]int
// @Router /chat/unread/rooms [get]
func (h *ChatHTTPHandler) GetUnreadCountPerRoom(c *fiber.Ctx) error {
	perRoom, err := h.chat.UnreadCountPerRoom(c.UserContext(), middlewares.MemberID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(perRoom)
}

// statusOf http status of a use case error
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	if status == fiber.StatusInternalServerError {
		logger.Log.Error("chat request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(ErrorRes{Error: "internal error"})
	}
	return c.Status(status).JSON(ErrorRes{Error: err.Error()})
}

// ConnectCheck check service start
// @Summary Check chat service status
// @Tags Shared
// @Success 200 {string} string "chat service start!"
// @Router / [get]
func ConnectCheck(c *fiber.Ctx) error {
	return c.SendString("chat service start!")
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Tags Shared
// @Param status query bool true "Debug status"
// @Success 200 {string} string "debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func DebugLogFlag(c *fiber.Ctx) error {
	status, err := strconv.ParseBool(c.Query("status"))
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	logger.Log.SetDebugMode(status)
	logger.Log.Info("debug", zap.Bool("status", status))
	return c.SendString(fmt.Sprintf("debug mode is : %t", status))
}
