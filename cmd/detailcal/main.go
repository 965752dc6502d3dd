package main

import (
	"log"

	"github.com/MrSnakeDoc/detailcal/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ detailcal failed: %v", err)
	}
}
