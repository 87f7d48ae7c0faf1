package server

import (
	"bubblerush/internal/session"
	"bubblerush/internal/sessions"
	"bubblerush/internal/wshub"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const clientSendBuffer = 16

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	fmt.Println("[Handle:WS] Request Received")
	sess := s.getSession(r)
	if sess == nil {
		http.Error(w, "Session not found", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("[WS] accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := &wshub.Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan []byte, clientSendBuffer),
	}
	sess.Hub.Register(client)
	defer sess.Hub.Unregister(client.ID)
	go client.WritePump(ctx)

	if snap, err := sess.Runner.Snapshot(ctx); err == nil {
		view := sessions.View(snap)
		sess.Hub.Send(client.ID, wshub.ServerMessage{Type: "state", State: &view})
	}

	for {
		var msg wshub.ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				log.Printf("[WS] read error: %v\n", err)
			}
			return
		}
		reply, err := s.dispatch(ctx, sess, msg)
		if errors.Is(err, session.ErrRunnerStopped) {
			conn.Close(websocket.StatusGoingAway, "session ended")
			return
		}
		if err != nil {
			log.Printf("[WS] %s: %v\n", msg.Type, err)
			return
		}
		sess.Hub.Send(client.ID, reply)
	}
}

// dispatch applies one client message and returns the reply for the sender.
// Game rule errors travel inside the reply; the returned error means the
// session can no longer be reached.
func (s *Server) dispatch(ctx context.Context, sess *sessions.Session, msg wshub.ClientMessage) (wshub.ServerMessage, error) {
	switch msg.Type {
	case "click":
		outcome, err := sess.Runner.Click(ctx, msg.X, msg.Y)
		if err != nil && !errors.Is(err, session.ErrPositionOverlap) && !errors.Is(err, session.ErrGameOver) {
			return wshub.ServerMessage{}, err
		}
		return wshub.ServerMessage{Type: "outcome", Outcome: outcome.String(), Error: errString(err)}, nil
	case "reset":
		if err := sess.Runner.Reset(ctx); err != nil {
			return wshub.ServerMessage{}, err
		}
		return wshub.ServerMessage{Type: "outcome", Outcome: "reset"}, nil
	case "difficulty":
		err := sess.Runner.SetDifficulty(ctx, msg.Difficulty)
		if err != nil && !errors.Is(err, session.ErrInvalidDifficulty) && !errors.Is(err, session.ErrDifficultyLocked) {
			return wshub.ServerMessage{}, err
		}
		return wshub.ServerMessage{Type: "outcome", Outcome: "difficulty", Error: errString(err)}, nil
	default:
		return wshub.ServerMessage{Type: "outcome", Error: "unknown message type " + msg.Type}, nil
	}
}
