package commands

import (
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFilePerms = 0o666

// setupLogging sends the global logger to the configured file. Without a file the logger is
// left alone.
func (a *App) setupLogging() error {
	if a.Config.Log.File == "" {
		return nil
	}

	logFile, err := os.OpenFile(a.Config.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, fs.FileMode(logFilePerms))
	if err != nil {
		return err
	}

	a.logFile = logFile

	zerolog.SetGlobalLevel(a.Config.LogLevel())

	log.Logger = log.With().Caller().Logger().Output(zerolog.ConsoleWriter{
		Out: logFile, TimeFormat: "2006-01-02_15:04:05",
	})

	log.Info().Str("version", version).Str("config", a.ConfigPath).Msg("starting application...")

	return nil
}
