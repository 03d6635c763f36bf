package monitoring

import (
	"io"
	"log"
)

// Logf is the process-level operational logger used outside the engine
// packages, by run log migrations and the replay loop. It defaults to
// log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetOutput routes Logf to w under prefix, with the same flags as the
// engine's per-package loggers. A nil w mutes Logf.
func SetOutput(w io.Writer, prefix string) {
	if w == nil {
		SetLogger(nil)
		return
	}
	SetLogger(log.New(w, prefix, log.LstdFlags|log.Lmicroseconds).Printf)
}
