package cmd

import (
	"fmt"
	"os"
	"strings"

	"absbot/config"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT to the standard logger
func ConfigureLogging(cfg *config.Config) error {
	level := log.InfoLevel
	if cfg.LogLevel != "" {
		parsed, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		level = parsed
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	log.SetOutput(os.Stdout)
	return nil
}
