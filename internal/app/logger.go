package app

import (
	"strings"

	"github.com/akash12888/note-taking-app/pkg/logger"
)

// ConfigureLogging initialises the global logger from server settings,
// defaulting the level to info.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.Init(level, strings.TrimSpace(cfg.Environment))
}
