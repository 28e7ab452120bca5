package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsReadLimit = 64 * 1024

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClientMessage struct {
	Type    string `json:"type"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// handleWebsocket serves chat over a long-lived connection. Frames are
// handled one at a time in arrival order.
func (h *Handler) handleWebsocket(c *gin.Context) {
	conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("chat websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	ctx := c.Request.Context()

	sendError := func(message string, detail error) error {
		frame := gin.H{"type": "error", "error": message}
		if detail != nil {
			frame["detail"] = detail.Error()
		}
		return conn.WriteJSON(frame)
	}

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warnf("chat websocket closed: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			if err := sendError("unsupported frame", nil); err != nil {
				return
			}
			continue
		}

		var msg wsClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			if err := sendError("invalid message", err); err != nil {
				return
			}
			continue
		}

		var writeErr error
		switch strings.ToLower(strings.TrimSpace(msg.Type)) {
		case "ping":
			writeErr = conn.WriteJSON(gin.H{"type": "pong"})
		case "chat":
			req := chatRequest{UserID: msg.UserID, Message: msg.Message}
			if err := req.validate(true); err != nil {
				writeErr = sendError(err.Error(), nil)
				break
			}
			reply := h.assistant.Reply(ctx, strings.TrimSpace(msg.UserID), msg.Message)
			writeErr = conn.WriteJSON(gin.H{
				"type":   "reply",
				"reply":  reply.Text,
				"status": string(reply.Status),
				"source": reply.Source,
			})
		case "clear":
			req := chatRequest{UserID: msg.UserID}
			if err := req.validate(false); err != nil {
				writeErr = sendError(err.Error(), nil)
				break
			}
			userID := strings.TrimSpace(msg.UserID)
			if err := h.assistant.Clear(ctx, userID); err != nil {
				h.logger.Warnf("clear history for %s failed: %v", userID, err)
				writeErr = sendError("failed to clear history", err)
				break
			}
			writeErr = conn.WriteJSON(gin.H{"type": "cleared", "status": clearedStatus(userID)})
		default:
			writeErr = sendError("unknown message type", nil)
		}

		if writeErr != nil {
			h.logger.Warnf("chat websocket write failed: %v", writeErr)
			return
		}
	}
}
