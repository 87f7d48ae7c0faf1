package main

import (
	"bubblerush/internal/config"
	"bubblerush/internal/session"
	"bubblerush/internal/tui"
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err.Error())
	}
	ctrl, err := session.NewController(cfg.Game(), rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		log.Fatal(err.Error())
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err.Error())
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err.Error())
	}

	sound := tui.NewSound()
	if err := sound.Initialize(); err != nil {
		// Non-fatal, the game runs silently
		log.Printf("Audio initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = tui.NewApp(screen, ctrl, sound).Run(ctx)
	stop()
	sound.Cleanup()
	screen.Fini()
	if err != nil {
		log.Fatal(err.Error())
	}
}
