package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/grigolet/gangle/internal/game"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Client struct {
	hub       *Hub
	chatID    int64
	userID    int64
	username  string
	firstName string
	conn      *websocket.Conn
	send      chan []byte
}

func (c *Client) sendJSON(env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		c.hub.log.Error("ws send marshal failed",
			zap.Int64("chat_id", c.chatID),
			zap.Int64("user_id", c.userID),
			zap.Error(err),
		)
		return
	}
	select {
	case c.send <- b:
	default:
		c.hub.unregister <- c
	}
}

func (c *Client) sendError(msg string) {
	c.sendJSON(Envelope{Type: "error", Payload: map[string]string{"message": msg}})
}

// readPump dispatches client commands to the game service. A dropped
// connection does not remove the user from an active round; their guess or
// pending slot outlives the socket.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()

		c.hub.log.Info("ws connection closed",
			zap.Int64("chat_id", c.chatID),
			zap.Int64("user_id", c.userID),
		)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg clientMsg
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.hub.log.Warn("ws read failed",
				zap.Int64("chat_id", c.chatID),
				zap.Int64("user_id", c.userID),
				zap.Error(err),
			)
			break
		}

		c.hub.log.Info("ws message received",
			zap.Int64("chat_id", c.chatID),
			zap.Int64("user_id", c.userID),
			zap.String("type", msg.Type),
		)

		switch msg.Type {
		case "start_round":
			if _, err := c.hub.svc.StartRound(context.Background(), c.chatID, c.userID); err != nil {
				c.hub.log.Warn("start_round failed",
					zap.Int64("chat_id", c.chatID),
					zap.Int64("user_id", c.userID),
					zap.Error(err),
				)
				c.sendError(err.Error())
				continue
			}

		case "submit_guess":
			var p SubmitGuessPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				c.sendError("bad payload")
				continue
			}
			ctx := context.Background()
			if err := c.hub.svc.AddParticipant(ctx, c.chatID, c.userID, c.username, c.firstName); err != nil {
				c.sendError(err.Error())
				continue
			}
			accepted, err := c.hub.svc.SubmitGuess(ctx, c.chatID, c.userID, p.Guess)
			if err != nil {
				c.hub.log.Warn("submit_guess failed",
					zap.Int64("chat_id", c.chatID),
					zap.Int64("user_id", c.userID),
					zap.Int("guess", p.Guess),
					zap.Error(err),
				)
				c.sendError(err.Error())
				continue
			}
			c.sendJSON(Envelope{Type: "guess_accepted", Payload: map[string]bool{"accepted": accepted}})

		case "forfeit":
			ctx := context.Background()
			if err := c.hub.svc.AddParticipant(ctx, c.chatID, c.userID, c.username, c.firstName); err != nil {
				c.sendError(err.Error())
				continue
			}
			if err := c.hub.svc.Forfeit(ctx, c.chatID, c.userID); err != nil {
				c.sendError(err.Error())
				continue
			}
			c.sendJSON(Envelope{Type: "forfeit_accepted", Payload: map[string]bool{"ok": true}})

		case "set_players":
			var p SetPlayersPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				c.sendError("bad payload")
				continue
			}
			if err := c.hub.svc.SetEstimatedPlayers(context.Background(), c.chatID, p.Count); err != nil {
				c.sendError(err.Error())
				continue
			}

		case "end_round":
			if _, err := c.hub.svc.ForceEnd(context.Background(), c.chatID, c.userID); err != nil {
				if errors.Is(err, game.ErrUnauthorized) {
					c.sendError("only the round starter or an admin can end the round")
					continue
				}
				c.sendError(err.Error())
				continue
			}

		case "status":
			status, err := c.hub.svc.RoundStatus(c.chatID)
			if err != nil {
				c.sendError(err.Error())
				continue
			}
			c.sendJSON(Envelope{Type: "round_status", Payload: status})

		default:
			c.hub.log.Warn("unknown ws message type",
				zap.Int64("chat_id", c.chatID),
				zap.Int64("user_id", c.userID),
				zap.String("type", msg.Type),
			)
			c.sendError("unknown message type")
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Warn("ws write failed",
					zap.Int64("chat_id", c.chatID),
					zap.Int64("user_id", c.userID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Warn("ws ping failed",
					zap.Int64("chat_id", c.chatID),
					zap.Int64("user_id", c.userID),
					zap.Error(err),
				)
				return
			}
		}
	}
}
