package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/architeacher/storefront/services/svc-storefront/internal/runtime"
	"github.com/joho/godotenv"
)

func main() {
	// A local .env is optional; deployed environments set variables directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	runtime.New().Run()
}
