package main

import (
	"os"

	"github.com/wonny/hedgevol/cmd/hedgevol/commands"
)

// main is the entry point for the hedgevol CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/hedgevol [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
