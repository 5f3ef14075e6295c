package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and waits for a join_chat message carrying
// the user's identity before wiring the client into the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, chatID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(joinWait))
	var msg clientMsg
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "join_chat" {
		_ = conn.WriteJSON(Envelope{Type: "error", Payload: map[string]string{"message": "expected join_chat"}})
		_ = conn.Close()
		return
	}

	var jp JoinPayload
	if err := json.Unmarshal(msg.Payload, &jp); err != nil || jp.UserID == 0 || strings.TrimSpace(jp.Username) == "" {
		_ = conn.WriteJSON(Envelope{Type: "error", Payload: map[string]string{"message": "invalid identity"}})
		_ = conn.Close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	client := &Client{
		hub:       h,
		chatID:    chatID,
		userID:    jp.UserID,
		username:  strings.TrimSpace(jp.Username),
		firstName: strings.TrimSpace(jp.FirstName),
		conn:      conn,
		send:      make(chan []byte, 64),
	}

	h.register <- client
	go client.writePump()

	h.Broadcast(chatID, Envelope{Type: "user_joined", Payload: jp})

	if status, err := h.svc.RoundStatus(chatID); err == nil {
		client.sendJSON(Envelope{Type: "round_status", Payload: status})
	}

	client.readPump()
}
