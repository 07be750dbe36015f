package app

import (
	"context"
	"fmt"
	"testing"

	"estate_chat_service/internal/chat/domain"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/mock"
)

// chatWorld state of one scenario
type chatWorld struct {
	t       *testing.T
	f       *wsFixture
	handles map[string]*fakeHandle
	rooms   []*domain.ChatRoom
	lastMsg string
	lastErr error
}

func (w *chatWorld) handle(userID string) *fakeHandle {
	h, ok := w.handles[userID]
	if !ok {
		h = newFakeHandle("conn-"+userID, userID)
		w.handles[userID] = h
	}
	return h
}

func (w *chatWorld) ownerIs(propertyID, ownerID string) error {
	return w.f.db.Create(&domain.Property{ID: propertyID, OwnerID: ownerID}).Error
}

func (w *chatWorld) startWithOwner(userID, propertyID string) error {
	room, err := w.f.chatFixture.uc.StartOrGetRoom(context.Background(), propertyID, userID, "")
	if err != nil {
		return err
	}
	w.rooms = append(w.rooms, room)
	return nil
}

func (w *chatWorld) startWith(userID, propertyID, otherID string) error {
	room, err := w.f.chatFixture.uc.StartOrGetRoom(context.Background(), propertyID, userID, otherID)
	if err != nil {
		return err
	}
	w.rooms = append(w.rooms, room)
	return nil
}

func (w *chatWorld) sameRoom() error {
	if len(w.rooms) != 2 || w.rooms[0].ID != w.rooms[1].ID {
		return fmt.Errorf("expected one shared room, got %+v", w.rooms)
	}
	return nil
}

func (w *chatWorld) online(userID string) error {
	return w.f.connFixture.uc.Connect(context.Background(), w.handle(userID), domain.ConnectionMeta{})
}

func (w *chatWorld) onlineInRoom(userID, propertyID string) error {
	if err := w.startWithOwner(userID, propertyID); err != nil {
		return err
	}
	if err := w.online(userID); err != nil {
		return err
	}
	return w.f.connFixture.uc.JoinRoom(context.Background(), w.handle(userID), w.rooms[len(w.rooms)-1].ID)
}

func (w *chatWorld) sends(userID, body string) error {
	if len(w.rooms) == 0 {
		return fmt.Errorf("no room yet")
	}
	w.f.do(w.handle(userID), domain.WSRequest{
		Action:    string(domain.SendMessage),
		RequestID: "send",
		RoomID:    w.rooms[len(w.rooms)-1].ID,
		Body:      body,
	})
	resp, ok := ack(w.handle(userID), "send")
	if !ok {
		return fmt.Errorf("no answer to send")
	}
	if !resp.Success {
		w.lastErr = fmt.Errorf("%s", resp.Error)
		return nil
	}
	msg, _ := resp.Payload.(map[string]interface{})
	id, _ := msg["id"].(string)
	if id == "" {
		return fmt.Errorf("ack without message id: %+v", resp)
	}
	w.lastMsg = id
	return nil
}

func (w *chatWorld) receivedEvent(userID, event string) error {
	if w.handle(userID).count(event) == 0 {
		return fmt.Errorf("%s did not receive %s, got %v", userID, event, w.handle(userID).actions())
	}
	return nil
}

func (w *chatWorld) unreadIs(userID string, want int) error {
	n, err := w.f.chatFixture.uc.UnreadCount(context.Background(), userID)
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("unread of %s: want %d got %d", userID, want, n)
	}
	return nil
}

func (w *chatWorld) marks(action domain.Action) func(string) error {
	return func(userID string) error {
		w.f.do(w.handle(userID), domain.WSRequest{Action: string(action), RequestID: "mark", MessageID: w.lastMsg})
		resp, ok := ack(w.handle(userID), "mark")
		if !ok || !resp.Success {
			return fmt.Errorf("%s failed: %+v", action, resp)
		}
		return nil
	}
}

func (w *chatWorld) lastStateIs(state string) error {
	history, err := w.f.chatFixture.uc.GetHistory(context.Background(), w.rooms[len(w.rooms)-1].ID, w.rooms[len(w.rooms)-1].ParticipantA)
	if err != nil {
		return err
	}
	for _, m := range history {
		if m.ID == w.lastMsg {
			if string(m.State()) != state {
				return fmt.Errorf("state want %s got %s", state, m.State())
			}
			return nil
		}
	}
	return fmt.Errorf("message %s not in history", w.lastMsg)
}

func (w *chatWorld) errorIs(text string) error {
	if w.lastErr == nil {
		return fmt.Errorf("expected error %q", text)
	}
	if got := w.lastErr.Error(); len(got) < len(text) || got[:len(text)] != text {
		return fmt.Errorf("error want prefix %q got %q", text, got)
	}
	return nil
}

func (w *chatWorld) reconnectTwice(userID string) error {
	ctx := context.Background()
	first := newFakeHandle("first-"+userID, userID)
	second := newFakeHandle("second-"+userID, userID)
	if err := w.f.connFixture.uc.Connect(ctx, first, domain.ConnectionMeta{}); err != nil {
		return err
	}
	if err := w.f.connFixture.uc.Connect(ctx, second, domain.ConnectionMeta{}); err != nil {
		return err
	}
	w.f.connFixture.uc.Disconnect(ctx, first)
	w.f.connFixture.uc.Disconnect(ctx, second)
	return nil
}

func (w *chatWorld) presenceCounts(watcher, userID string, on, off int) error {
	h := w.handle(watcher)
	if got := onlineEvents(h, userID, true); got != on {
		return fmt.Errorf("online events want %d got %d", on, got)
	}
	if got := onlineEvents(h, userID, false); got != off {
		return fmt.Errorf("offline events want %d got %d", off, got)
	}
	return nil
}

func TestChatFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name: "chat",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			w := &chatWorld{t: t}

			sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				w.f = newWSFixture(t)
				w.f.notifier.On("NotifyOffline", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				w.handles = map[string]*fakeHandle{}
				w.rooms = nil
				w.lastMsg = ""
				w.lastErr = nil
				return ctx, nil
			})

			sc.Step(`^物件 "([^"]*)" 的屋主是 "([^"]*)"$`, w.ownerIs)
			sc.Step(`^"([^"]*)" 針對物件 "([^"]*)" 發起聊天$`, w.startWithOwner)
			sc.Step(`^"([^"]*)" 針對物件 "([^"]*)" 與 "([^"]*)" 發起聊天$`, w.startWith)
			sc.Step(`^兩次取得的聊天室相同$`, w.sameRoom)
			sc.Step(`^"([^"]*)" 已上線$`, w.online)
			sc.Step(`^"([^"]*)" 已上線並加入物件 "([^"]*)" 的聊天室$`, w.onlineInRoom)
			sc.Step(`^"([^"]*)" 發送訊息 "([^"]*)"$`, w.sends)
			sc.Step(`^"([^"]*)" 應該收到事件 "([^"]*)"$`, w.receivedEvent)
			sc.Step(`^"([^"]*)" 的未讀數為 (\d+)$`, w.unreadIs)
			sc.Step(`^"([^"]*)" 將最後一則訊息標記為已讀$`, w.marks(domain.MarkRead))
			sc.Step(`^"([^"]*)" 將最後一則訊息標記為已送達$`, w.marks(domain.MarkDelivered))
			sc.Step(`^最後一則訊息狀態為 "([^"]*)"$`, w.lastStateIs)
			sc.Step(`^應該回傳錯誤 "([^"]*)"$`, w.errorIs)
			sc.Step(`^"([^"]*)" 連線兩次後全部斷線$`, w.reconnectTwice)
			sc.Step(`^"([^"]*)" 應該收到 "([^"]*)" 上線 (\d+) 次 下線 (\d+) 次$`, w.presenceCounts)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
