package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// Provider API keys are commonly kept in a project .env file.
	_ = godotenv.Load()
	Execute()
}
