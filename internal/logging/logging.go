// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

// Package logging owns the process-wide logger shared by the graph core and
// the loaders. Callers obtain named sub-loggers from HCLogger rather than
// constructing their own.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// envLog is the environment variable that controls the log level. Unset or
// unrecognized values silence the logger entirely.
const envLog = "TOFUGUARD_LOG"

var logger = sync.OnceValue(func() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "tofuguard",
		Level:  globalLogLevel(),
		Output: logOutput(),
	})
})

// HCLogger returns the shared logger. Components derive their own with
// Named, e.g. logging.HCLogger().Named("graph").
func HCLogger() hclog.Logger {
	return logger()
}

func globalLogLevel() hclog.Level {
	envLevel := strings.ToUpper(os.Getenv(envLog))
	if envLevel == "" {
		return hclog.Off
	}
	if level := hclog.LevelFromString(envLevel); level != hclog.NoLevel {
		return level
	}
	return hclog.Trace
}

func logOutput() io.Writer {
	if globalLogLevel() == hclog.Off {
		return io.Discard
	}
	return os.Stderr
}
