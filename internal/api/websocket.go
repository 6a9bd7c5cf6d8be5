package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/resumend/client/internal/models"
	"github.com/resumend/client/internal/session"
	"go.uber.org/zap"
)

// WebSocket message types for the state stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeState = "state"
	MsgTypePong  = "pong"
	MsgTypeError = "error"
)

const wsWriteWait = 10 * time.Second

// WSMessage is the envelope for every frame on the state stream.
type WSMessage struct {
	Type      string        `json:"type"`
	State     *models.State `json:"state,omitempty"`
	Message   string        `json:"message,omitempty"`
	Timestamp int64         `json:"timestamp"`
}

// WebSocketHandler pushes a tab's state to the page whenever it changes,
// so the page does not have to poll while a request is pending.
type WebSocketHandler struct {
	tabs     *session.Manager
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler creates the state stream handler
func NewWebSocketHandler(tabs *session.Manager, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		tabs: tabs,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		logger: logger.Named("ws"),
	}
}

// HandleStateStream upgrades the connection, sends the current state and
// then one state frame per change until the client leaves or the tab expires.
func (wsh *WebSocketHandler) HandleStateStream(c echo.Context) error {
	ctrl := tabFor(c, wsh.tabs)

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	log := wsh.logger.With(zap.String("tab", ctrl.ID()))
	log.Debug("client connected")

	done := make(chan struct{})
	defer close(done)
	incoming := wsh.readLoop(ws, done, log)

	changed := ctrl.Changed()
	if err := wsh.sendState(ws, ctrl); err != nil {
		return nil
	}

	for {
		select {
		case <-changed:
			changed = ctrl.Changed()
			if err := wsh.sendState(ws, ctrl); err != nil {
				return nil
			}
		case msg, ok := <-incoming:
			if !ok {
				log.Debug("client disconnected")
				return nil
			}
			switch msg.Type {
			case MsgTypePing:
				err = wsh.send(ws, WSMessage{Type: MsgTypePong})
			default:
				err = wsh.send(ws, WSMessage{Type: MsgTypeError, Message: "Unknown message type: " + msg.Type})
			}
			if err != nil {
				return nil
			}
		case <-ctrl.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "tab expired"),
				time.Now().Add(wsWriteWait))
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}

// readLoop forwards client frames until the connection fails. The returned
// channel is closed when reading stops.
func (wsh *WebSocketHandler) readLoop(ws *websocket.Conn, done <-chan struct{}, log *zap.Logger) <-chan WSMessage {
	incoming := make(chan WSMessage)
	go func() {
		defer close(incoming)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("connection error", zap.Error(err))
				}
				return
			}
			select {
			case incoming <- msg:
			case <-done:
				return
			}
		}
	}()
	return incoming
}

func (wsh *WebSocketHandler) sendState(ws *websocket.Conn, ctrl *session.Controller) error {
	st := ctrl.State()
	return wsh.send(ws, WSMessage{Type: MsgTypeState, State: &st})
}

func (wsh *WebSocketHandler) send(ws *websocket.Conn, msg WSMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := ws.WriteJSON(msg); err != nil {
		wsh.logger.Debug("failed to send message", zap.Error(err))
		return err
	}
	return nil
}
