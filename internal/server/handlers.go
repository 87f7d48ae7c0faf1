package server

import (
	"bubblerush/internal/metrics"
	"bubblerush/internal/session"
	"bubblerush/internal/sessions"
	"bubblerush/internal/wshub"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"text/template"
)

const sessionCookie = "session_id"

type Server struct {
	Sessions          *sessions.Store
	Tmpl              *template.Template
	Metrics           *metrics.Collector // nil disables /metrics
	DefaultDifficulty int
}

type difficultyOption struct {
	Value    int
	Label    string
	Selected bool
}

type homeData struct {
	Options []difficultyOption
	Error   string
}

type gameData struct {
	Width   int
	Height  int
	Top     int
	State   wshub.StateView
	Options []difficultyOption
}

var difficultyLabels = map[int]string{4: "Easy", 5: "Medium", 6: "Hard"}

func difficultyOptions(selected int) []difficultyOption {
	opts := make([]difficultyOption, 0, session.MaxDifficulty-session.MinDifficulty+1)
	for d := session.MinDifficulty; d <= session.MaxDifficulty; d++ {
		opts = append(opts, difficultyOption{Value: d, Label: difficultyLabels[d], Selected: d == selected})
	}
	return opts
}

// getSession resolves the current game from the session_id cookie.
func (s *Server) getSession(r *http.Request) *sessions.Session {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	return s.Sessions.Get(cookie.Value)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println(err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// writeState replies with the session's current snapshot, tagged with the
// outcome of the request when there is one.
func (s *Server) writeState(w http.ResponseWriter, r *http.Request, sess *sessions.Session, status int, msg wshub.ServerMessage) {
	snap, err := sess.Runner.Snapshot(r.Context())
	if err != nil {
		s.runnerError(w, err)
		return
	}
	view := sessions.View(snap)
	msg.State = &view
	writeJSON(w, status, msg)
}

func (s *Server) runnerError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrRunnerStopped) {
		http.Error(w, "Session ended", http.StatusGone)
		return
	}
	log.Println(err)
	http.Error(w, "Session unavailable", http.StatusServiceUnavailable)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if sess := s.getSession(r); sess != nil {
		http.Redirect(w, r, "/play", http.StatusSeeOther)
		return
	}
	data := homeData{Options: difficultyOptions(s.DefaultDifficulty)}
	if err := s.Tmpl.ExecuteTemplate(w, "home", data); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering home page", http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	fmt.Println("[Handle:CreateSession] Request Received")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	difficulty := s.DefaultDifficulty
	if v := strings.TrimSpace(r.FormValue("difficulty")); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid difficulty", http.StatusBadRequest)
			return
		}
		difficulty = d
	}

	sess, err := s.Sessions.Create(difficulty)
	if errors.Is(err, session.ErrInvalidDifficulty) {
		w.WriteHeader(http.StatusBadRequest)
		data := homeData{Options: difficultyOptions(s.DefaultDifficulty), Error: err.Error()}
		if err := s.Tmpl.ExecuteTemplate(w, "home", data); err != nil {
			log.Println(err)
		}
		return
	}
	if err != nil {
		log.Println(err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
	})

	fmt.Printf("[Handle:CreateSession] Created session %s\n", sess.ID)
	http.Redirect(w, r, "/play", http.StatusSeeOther)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	fmt.Println("[Handle:Play] Request Received")
	sess := s.getSession(r)
	if sess == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	snap, err := sess.Runner.Snapshot(r.Context())
	if err != nil {
		s.runnerError(w, err)
		return
	}
	data := gameData{
		Width:   sess.Bounds.Width,
		Height:  sess.Bounds.Height,
		Top:     sess.Bounds.Top,
		State:   sessions.View(snap),
		Options: difficultyOptions(snap.Difficulty),
	}
	if err := s.Tmpl.ExecuteTemplate(w, "game", data); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering game view", http.StatusInternalServerError)
	}
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	fmt.Println("[Handle:Click] Request Received")
	sess := s.getSession(r)
	if sess == nil {
		http.Error(w, "Session not found", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	x, errX := strconv.Atoi(r.FormValue("x"))
	y, errY := strconv.Atoi(r.FormValue("y"))
	if errX != nil || errY != nil {
		http.Error(w, "Invalid coordinates", http.StatusBadRequest)
		return
	}

	outcome, err := sess.Runner.Click(r.Context(), x, y)
	if err != nil && !errors.Is(err, session.ErrPositionOverlap) && !errors.Is(err, session.ErrGameOver) {
		s.runnerError(w, err)
		return
	}
	s.writeState(w, r, sess, http.StatusOK, wshub.ServerMessage{
		Type:    "outcome",
		Outcome: outcome.String(),
		Error:   errString(err),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	fmt.Println("[Handle:Reset] Request Received")
	sess := s.getSession(r)
	if sess == nil {
		http.Error(w, "Session not found", http.StatusBadRequest)
		return
	}
	if err := sess.Runner.Reset(r.Context()); err != nil {
		s.runnerError(w, err)
		return
	}
	s.writeState(w, r, sess, http.StatusOK, wshub.ServerMessage{Type: "state"})
}

func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	fmt.Println("[Handle:Difficulty] Request Received")
	sess := s.getSession(r)
	if sess == nil {
		http.Error(w, "Session not found", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	d, err := strconv.Atoi(r.FormValue("difficulty"))
	if err != nil {
		http.Error(w, "Invalid difficulty", http.StatusBadRequest)
		return
	}

	err = sess.Runner.SetDifficulty(r.Context(), d)
	switch {
	case errors.Is(err, session.ErrInvalidDifficulty):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, session.ErrDifficultyLocked):
		s.writeState(w, r, sess, http.StatusConflict, wshub.ServerMessage{Type: "state", Error: err.Error()})
		return
	case err != nil:
		s.runnerError(w, err)
		return
	}
	s.writeState(w, r, sess, http.StatusOK, wshub.ServerMessage{Type: "state"})
}

func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	fmt.Println("[Handle:Quit] Request Received")
	if sess := s.getSession(r); sess != nil {
		s.Sessions.Delete(sess.ID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(r)
	if sess == nil {
		http.Error(w, "Session not found", http.StatusBadRequest)
		return
	}
	s.writeState(w, r, sess, http.StatusOK, wshub.ServerMessage{Type: "state"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(r)
	if sess == nil {
		http.Error(w, "Session not found", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	msgChan := sess.Broadcaster.Subscribe()
	defer sess.Broadcaster.Unsubscribe(msgChan)

	// Prime the stream so a fresh page does not wait for the next event.
	if snap, err := sess.Runner.Snapshot(r.Context()); err == nil {
		view := sessions.View(snap)
		if data, err := json.Marshal(wshub.ServerMessage{Type: "state", State: &view}); err == nil {
			writeEvent(w, "state", string(data))
			flusher.Flush()
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			writeEvent(w, msg.Event, msg.Msg)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, msg string) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(msg, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(s.Sessions.List()),
	})
}
