package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger sends debug logs to logFile so they don't tear the live bars.
// Without debug only errors reach stderr.
func InitLogger(debug bool, logFile string) (io.Closer, error) {
	if !debug {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		SetLogOutput(os.Stderr)
		return nopCloser{}, nil
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	if logFile == "" {
		logFile = DefaultLogFile
	}
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	output := zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		TimeFormat: time.DateTime,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return f, nil
}

func GetLogger(component string) zerolog.Logger {
	return log.With().Str("op", component).Logger()
}

func SetLogOutput(w io.Writer) {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
