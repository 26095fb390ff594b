package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/filmcrewhq/filmcrew/realtime"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients authenticate with the bearer token, not the origin.
		return true
	},
}

type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
}

const wsReadTimeout = 60 * time.Second

// handleWebsocket upgrades the connection and processes client frames until
// disconnect. Clients subscribe to conversation rooms and relay typing
// signals; everything else reaches them through the hub.
func (s *Server) handleWebsocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			log.Printf("ws: upgrade for user %d: %v", userID, err)
			return
		}

		conn := realtime.NewConnection(userID, ws)
		s.Hub.Attach(conn)
		defer func() {
			s.Hub.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(64 << 10)
		_ = ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
		})

		s.sendEvent(conn, realtime.Event{Type: realtime.EventConnected})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				s.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "subscribe":
				s.handleSubscribe(conn, frame)
			case "unsubscribe":
				s.handleUnsubscribe(conn, frame)
			case "typing":
				s.handleTypingFrame(conn, frame)
			default:
				s.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (s *Server) handleSubscribe(conn *realtime.Connection, frame inboundFrame) {
	conversationID, err := uuid.Parse(frame.ConversationID)
	if err != nil {
		s.replyError(conn, "bad_request", "conversation_id is required")
		return
	}

	if apiErr := s.ChatService.EnsureParticipant(conn.UserID, conversationID); apiErr != nil {
		s.replyError(conn, "forbidden", apiErr.Message)
		return
	}

	s.Hub.Subscribe(conversationID.String(), conn)
	s.sendEvent(conn, realtime.Event{
		Type:           realtime.EventSubscribed,
		ConversationID: conversationID.String(),
	})
}

func (s *Server) handleUnsubscribe(conn *realtime.Connection, frame inboundFrame) {
	if frame.ConversationID == "" {
		s.replyError(conn, "bad_request", "conversation_id is required")
		return
	}
	s.Hub.Unsubscribe(frame.ConversationID, conn)
	s.sendEvent(conn, realtime.Event{
		Type:           realtime.EventUnsubscribed,
		ConversationID: frame.ConversationID,
	})
}

func (s *Server) handleTypingFrame(conn *realtime.Connection, frame inboundFrame) {
	conversationID, err := uuid.Parse(frame.ConversationID)
	if err != nil {
		s.replyError(conn, "bad_request", "conversation_id is required")
		return
	}
	if apiErr := s.ChatService.Typing(conn.UserID, conversationID); apiErr != nil {
		s.replyError(conn, "forbidden", apiErr.Message)
	}
}

func (s *Server) sendEvent(conn *realtime.Connection, ev realtime.Event) {
	if payload, err := json.Marshal(ev); err == nil {
		_ = conn.Send(payload)
	}
}

func (s *Server) replyError(conn *realtime.Connection, code string, message string) {
	s.sendEvent(conn, realtime.Event{
		Type:  realtime.EventError,
		Code:  code,
		Error: message,
	})
}
