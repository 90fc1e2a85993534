// Package safego launches background goroutines that must outlive any single
// request: the notification janitor and rate limiter cleanup loops run for
// the life of the process, so a panic in one is recovered and logged with its
// stack instead of taking the server down.
package safego

import (
	"log/slog"
	"runtime/debug"
)

// Go runs fn on a new goroutine, recovering and logging any panic.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background goroutine panicked",
					"panic", r,
					"stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
