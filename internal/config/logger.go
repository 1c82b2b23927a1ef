package config

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggersMu sync.Mutex
	loggers   []*logrus.Logger
	level     = logrus.InfoLevel
)

func InitLogger() *logrus.Logger {

	var logger = logrus.New()

	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: false,
		FullTimestamp: true,
		ForceColors:   true,
	})

	loggersMu.Lock()
	logger.SetLevel(level)
	loggers = append(loggers, logger)
	loggersMu.Unlock()

	return logger
}

// SetLogLevel applies the level to every logger created so far and to later ones.
func SetLogLevel(name string) {
	if name == "" {
		return
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(name))
	if err != nil {
		return
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()
	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
}
