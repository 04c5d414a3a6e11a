package main

import (
	"log"

	"speech-illustrator/internal/bootstrap"
	"speech-illustrator/internal/config"
)

func main() {
	app, _, cleanup, err := bootstrap.NewFromEnv(config.LoadEnv(), nil)
	if err != nil {
		log.Fatalf("bootstrap app: %v", err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		log.Printf("run app: %v", err)
	}
}
