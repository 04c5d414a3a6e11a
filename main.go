package main

import (
	"embed"
	"log"

	"speech-illustrator/internal/bootstrap"
	"speech-illustrator/internal/config"
)

//go:embed frontend/index.html
var appAssets embed.FS

func main() {
	app, _, cleanup, err := bootstrap.NewFromEnv(config.LoadEnv(), appAssets)
	if err != nil {
		log.Fatalf("bootstrap app: %v", err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		log.Printf("run app: %v", err)
	}
}
