// Package logging points the standard logger at stderr or a rotating file.
package logging

import (
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// File enables rotation when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func DefaultOptions(file string) Options {
	return Options{File: file, MaxSizeMB: 20, MaxBackups: 5, MaxAgeDays: 28}
}

// Setup configures the package logger and returns a closer for the file
// sink. The closer is a no-op when logging to stderr.
func Setup(opts Options) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	path := strings.TrimSpace(opts.File)
	if path == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, sink))
	return sink
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
