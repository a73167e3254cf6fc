package junban

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logger writing to stderr. format is "text" or "json".
func NewLogger(level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("junban: log level: %w", err)
	}
	log.SetLevel(lvl)
	switch format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("junban: unknown log format %q", format)
	}
	return log, nil
}
