package main

import (
	"os"

	"github.com/wonny/newsviews/cmd/views/commands"
)

// main is the entry point for the views CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/views [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
