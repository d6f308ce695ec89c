package main

import (
	"log"

	"github.com/MrSnakeDoc/linkus/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("linkus failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("linkus stopped with error: %v", err)
	}
}
