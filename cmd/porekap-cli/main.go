package main

import (
	"log/slog"

	"github.com/odyssey-erp/porekap/cmd/porekap-cli/cli"
	"github.com/odyssey-erp/porekap/internal/app"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping cli")
		return
	}
	cli.Execute()
}
