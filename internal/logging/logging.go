/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package logging provides the component-tagged, verbosity-gated logger
// shared by every matchfabric binary.
package logging

import (
	"log"
	"time"
)

const logDate string = `2006-01-02T15:04:05.000-07:00`

// Logger prints tagged, timestamped lines when Verbose is set, matching
// the partybox "SERVE:"/"GAMES:" tagging convention.
type Logger struct {
	Tag     string
	Verbose bool
}

func New(tag string, verbose bool) *Logger {
	return &Logger{Tag: tag, Verbose: verbose}
}

func (l *Logger) Printf(format string, args ...any) {
	if !l.Verbose {
		return
	}

	log.Printf("%s | %s: "+format, append([]any{time.Now().Format(logDate), l.Tag}, args...)...)
}

// Errorf always prints, regardless of verbosity, matching ServePage's
// unconditional "ERROR:" lines for listener failures.
func (l *Logger) Errorf(format string, args ...any) {
	log.Printf("%s | %s: ERROR: "+format, append([]any{time.Now().Format(logDate), l.Tag}, args...)...)
}
