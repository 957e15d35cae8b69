// Command client is a terminal front-end for the items API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/identity"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/services/item/client"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "client:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	// The screen belongs to the UI, so logs go to a file.
	logPath := filepath.Join(os.TempDir(), "itemsapi-client.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close() //nolint:errcheck
	log := logger.NewWithWriter(logFile, "info").With("process", "client", "api_url", cfg.APIURL)

	httpClient := &http.Client{Timeout: cfg.Timeout}
	ctrl := client.NewController(
		client.NewHTTPAPI(cfg.APIURL, httpClient),
		identity.NewHTTPAuthenticator(cfg.APIURL, httpClient),
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(newModel(ctx, ctrl, cfg.Username), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
