package main

import (
	"log"

	"github.com/MrSnakeDoc/recall/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ recall failed to start: %v", err)
	}
}
