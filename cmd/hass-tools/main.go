package main

import (
	"net"
	"os"

	"github.com/comigor/hass-tools/internal/config"
	"github.com/comigor/hass-tools/internal/history"
	"github.com/comigor/hass-tools/internal/logger"
	"github.com/comigor/hass-tools/internal/server"
	"github.com/comigor/hass-tools/pkg/hass"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	if cfg.History.Path != "" {
		history.SetPath(cfg.History.Path)
	}

	client := hass.New(hass.Config{
		BaseURL: cfg.HomeAssistant.URL,
		Token:   cfg.HomeAssistant.Token,
	})
	srv := server.New(client)

	switch cfg.Server.Transport {
	case "http":
		addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
		logger.L.Info("starting streamable HTTP server", "address", addr)
		err = srv.ServeHTTP(addr)
	default:
		logger.L.Info("serving MCP over stdio")
		err = srv.ServeStdio()
	}
	if err != nil {
		logger.L.Error("server exited", "error", err)
		os.Exit(1)
	}
}
