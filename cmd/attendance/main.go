package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// .env необязателен: в проде всё приходит из окружения.
	_ = godotenv.Load()

	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "attendance:", err)
		os.Exit(1)
	}
}
