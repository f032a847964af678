package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/quiz-mastro/quizmastro/internal/cli"
)

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
