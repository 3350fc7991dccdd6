/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process. Verbosity above zero enables
// debug events.
func Setup(verbosity int) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if verbosity > 0 {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	logger := zerolog.New(writer).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger
}
