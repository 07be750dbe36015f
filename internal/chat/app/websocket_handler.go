package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/internal/chat/repository"
	"estate_chat_service/pkg/config"
	"estate_chat_service/pkg/logger"
	"estate_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// ChatWebsocketHandler websocket 入口, 將 command 轉給 use case 並推播事件
type ChatWebsocketHandler struct {
	chat        ChatUseCase
	connections ConnectionUseCase
	registry    *PresenceRegistry
	hub         *Hub
	notifier    repository.OfflineNotifier
	wsCfg       config.WebSocketConfig
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	chat ChatUseCase,
	connections ConnectionUseCase,
	registry *PresenceRegistry,
	hub *Hub,
	notifier repository.OfflineNotifier,
	wsCfg config.WebSocketConfig,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		chat:        chat,
		connections: connections,
		registry:    registry,
		hub:         hub,
		notifier:    notifier,
		wsCfg:       wsCfg.WithDefaults(),
	}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	memberID, _ := conn.Locals(middlewares.TokenMemberID).(string)
	client := NewClient(conn, memberID, h.wsCfg)

	ctx, cancel := context.WithCancel(ctx)
	go client.writePump()
	defer func() {
		cancel()
		client.Close()
		client.Wait()
	}()

	meta := domain.ConnectionMeta{
		Device:     conn.Headers(fiber.HeaderUserAgent),
		RemoteAddr: conn.RemoteAddr().String(),
	}
	if err := h.connections.Connect(ctx, client, meta); err != nil {
		logger.Log.Warn("websocket connect rejected", zap.Error(err))
		Send(client, domain.ErrorEvent{Message: err.Error()})
		return
	}
	defer h.connections.Disconnect(context.WithoutCancel(ctx), client)

	conn.SetReadLimit(h.wsCfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.wsCfg.PongWait))
	conn.SetPongHandler(func(string) error {
		h.connections.Heartbeat(client)
		return conn.SetReadDeadline(time.Now().Add(h.wsCfg.PongWait))
	})

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Info("websocket closed", zap.String("userID", memberID))
			} else {
				logger.Log.Warn("websocket read", zap.String("userID", memberID), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.wsCfg.PongWait))

		if mt != websocket.TextMessage {
			Send(client, domain.ErrorEvent{Message: "only text messages are supported"})
			continue
		}
		h.dispatch(ctx, client, message)
	}
}

// dispatch decode one command, run it and answer the issuing connection
func (h *ChatWebsocketHandler) dispatch(ctx context.Context, c Handle, raw []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		Send(c, domain.ErrorEvent{Message: "malformed request"})
		return
	}
	h.connections.Heartbeat(c)

	payload, err := h.execAction(ctx, c, req)
	if err != nil {
		resp := domain.Envelope(domain.ErrorEvent{Message: clientMessage(err)})
		resp.RequestID = req.RequestID
		SendResponse(c, resp)
		return
	}

	SendResponse(c, domain.WSResponse{
		Action:    req.Action,
		RequestID: req.RequestID,
		Success:   true,
		Payload:   payload,
	})
}

func (h *ChatWebsocketHandler) execAction(ctx context.Context, c Handle, req domain.WSRequest) (interface{}, error) {
	userID := c.UserID()

	switch domain.Action(req.Action) {
	case domain.JoinRoom:
		if err := h.connections.JoinRoom(ctx, c, req.RoomID); err != nil {
			return nil, err
		}
		return fiber.Map{"room_id": req.RoomID}, nil

	case domain.LeaveRoom:
		if err := h.connections.LeaveRoom(ctx, c, req.RoomID); err != nil {
			return nil, err
		}
		return fiber.Map{"room_id": req.RoomID}, nil

	case domain.SendMessage:
		// sent_at, insert and fan-out stay in one step per room so
		// members see the same order as the history
		var msg *domain.ChatMessage
		err := h.hub.Sequence(req.RoomID, func() (domain.Audience, domain.Event, error) {
			var err error
			msg, err = h.chat.SendMessage(ctx, req.RoomID, userID, req.Body, req.RepliedToID)
			if err != nil {
				return domain.Audience{}, nil, err
			}
			return domain.RoomAudience(msg.RoomID), domain.NewMessageEventFrom(msg), nil
		})
		if err != nil {
			return nil, err
		}
		h.notifyIfOffline(ctx, msg)
		return msg, nil

	case domain.MarkDelivered:
		var r *domain.DeliveryReceipt
		err := h.hub.Sequence(req.MessageID, func() (domain.Audience, domain.Event, error) {
			var err error
			r, err = h.chat.MarkDelivered(ctx, req.MessageID, userID)
			if err != nil || r == nil {
				return domain.Audience{}, nil, err
			}
			return domain.RoomAudience(r.RoomID), domain.MessageDeliveredEvent{
				MessageID:   r.MessageID,
				RoomID:      r.RoomID,
				UserID:      r.UserID,
				DeliveredAt: r.DeliveredAt,
			}, nil
		})
		if err != nil {
			return nil, err
		}
		return fiber.Map{"message_id": req.MessageID, "changed": r != nil}, nil

	case domain.MarkRead:
		var r *domain.ReadReceipt
		err := h.hub.Sequence(req.MessageID, func() (domain.Audience, domain.Event, error) {
			var err error
			r, err = h.chat.MarkRead(ctx, req.MessageID, userID)
			if err != nil || r == nil {
				return domain.Audience{}, nil, err
			}
			return domain.RoomAudience(r.RoomID), domain.MessageReadEvent{
				MessageID: r.MessageID,
				RoomID:    r.RoomID,
				UserID:    r.ReaderID,
				ReadAt:    r.ReadAt,
			}, nil
		})
		if err != nil {
			return nil, err
		}
		return fiber.Map{"message_id": req.MessageID, "changed": r != nil}, nil

	case domain.AddReaction:
		var r *domain.ChatMessageReaction
		err := h.hub.Sequence(req.MessageID, func() (domain.Audience, domain.Event, error) {
			var err error
			r, err = h.chat.AddReaction(ctx, req.MessageID, userID, req.Type)
			if err != nil {
				return domain.Audience{}, nil, err
			}
			return domain.RoomAudience(r.RoomID), domain.ReactionAddedEvent{
				MessageID: r.MessageID,
				RoomID:    r.RoomID,
				UserID:    r.UserID,
				Type:      r.Type,
			}, nil
		})
		if err != nil {
			return nil, err
		}
		return r, nil

	case domain.RemoveReaction:
		var r *domain.ReactionRemoval
		err := h.hub.Sequence(req.MessageID, func() (domain.Audience, domain.Event, error) {
			var err error
			r, err = h.chat.RemoveReaction(ctx, req.MessageID, userID)
			if err != nil || r == nil {
				return domain.Audience{}, nil, err
			}
			return domain.RoomAudience(r.RoomID), domain.ReactionRemovedEvent{
				MessageID: r.MessageID,
				RoomID:    r.RoomID,
				UserID:    r.UserID,
			}, nil
		})
		if err != nil {
			return nil, err
		}
		return fiber.Map{"message_id": req.MessageID, "changed": r != nil}, nil

	case domain.Typing:
		if err := h.connections.Typing(ctx, c, req.RoomID, req.IsTyping); err != nil {
			return nil, err
		}
		return fiber.Map{"room_id": req.RoomID, "is_typing": req.IsTyping}, nil

	case domain.GetOnlineUsers:
		presence, err := h.connections.OnlineUsers(ctx, c, req.RoomID)
		if err != nil {
			return nil, err
		}
		return presence, nil

	case domain.UpdateLastSeen:
		at, err := h.connections.UpdateLastSeen(ctx, c)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"at": at}, nil

	default:
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidArgument, req.Action)
	}
}

// notifyIfOffline hand the message to the notifier when the recipient has no live connection
func (h *ChatWebsocketHandler) notifyIfOffline(ctx context.Context, msg *domain.ChatMessage) {
	if h.notifier == nil {
		return
	}
	room, err := h.chat.AuthorizeRoom(ctx, msg.RoomID, msg.SenderID)
	if err != nil {
		logger.Log.Warn("offline notify lookup", zap.String("roomID", msg.RoomID), zap.Error(err))
		return
	}
	recipient := room.OtherParticipant(msg.SenderID)
	if h.registry.IsOnline(recipient) {
		return
	}
	if err := h.notifier.NotifyOffline(context.WithoutCancel(ctx), recipient, msg); err != nil {
		logger.Log.Warn("offline notify", zap.String("recipient", recipient), zap.Error(err))
	}
}

// clientMessage text of err safe to show to the client
func clientMessage(err error) string {
	for _, known := range []error{
		domain.ErrUnauthorized,
		domain.ErrNotFound,
		domain.ErrInvalidArgument,
		domain.ErrConflict,
		domain.ErrUnavailable,
	} {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	logger.Log.Error("websocket command failed", zap.Error(err))
	return "internal error"
}
