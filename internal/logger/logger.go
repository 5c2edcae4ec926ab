package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	Level  string
	Format string
}

// PrepareLogger configures the global logrus logger. Logs go to stderr unless out is given.
func PrepareLogger(config Config, out ...io.Writer) error {
	level, err := log.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", config.Level, err)
	}

	switch strings.ToLower(config.Format) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", config.Format)
	}

	var w io.Writer = os.Stderr
	if len(out) > 0 && out[0] != nil {
		w = out[0]
	}
	log.SetOutput(w)
	log.SetLevel(level)
	return nil
}
