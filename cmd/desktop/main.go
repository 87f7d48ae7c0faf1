package main

import (
	"bubblerush/internal/config"
	"bubblerush/internal/desktop"
	"log"
	"math/rand"
	"time"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err.Error())
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if err := desktop.Run(cfg.Game(), rng); err != nil {
		log.Fatal(err.Error())
	}
}
