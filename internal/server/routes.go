package server

import (
	"bubblerush/internal/config"
	"bubblerush/internal/metrics"
	"bubblerush/internal/sessions"
	"fmt"
	"net/http"
	"text/template"
)

func Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	collector := metrics.NewCollector()
	store := sessions.NewStore(appCfg.Game(), appCfg.SessionTTLDuration(), collector)
	defer store.Close()

	tmpl, err := ParseTemplates("templates")
	if err != nil {
		return err
	}

	srv := &Server{
		Sessions:          store,
		Tmpl:              tmpl,
		Metrics:           collector,
		DefaultDifficulty: appCfg.Difficulty,
	}

	addr := "0.0.0.0:" + appCfg.Port
	fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
	return http.ListenAndServe(addr, srv.Routes())
}

// ParseTemplates loads the page templates from dir.
func ParseTemplates(dir string) (*template.Template, error) {
	tmpl, err := template.New("").ParseFiles(
		dir+"/home.html",
		dir+"/game.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tmpl, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /sessions/create", s.handleCreateSession)
	mux.HandleFunc("GET /play", s.handlePlay)
	mux.HandleFunc("POST /play/click", s.handleClick)
	mux.HandleFunc("POST /play/reset", s.handleReset)
	mux.HandleFunc("POST /play/difficulty", s.handleDifficulty)
	mux.HandleFunc("POST /play/quit", s.handleQuit)
	mux.HandleFunc("GET /play/state", s.handleState)
	mux.HandleFunc("GET /play/events", s.handleEvents)
	mux.HandleFunc("GET /play/ws", s.handleWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	return mux
}
