package safego

import (
	"log"
	"runtime/debug"
)

// SafeGo runs fn on a new goroutine and writes any panic (with stack) to the
// logger before re-panicking. The curses UI owns the terminal and swallows
// anything printed to stderr, so this is the only way a crash in a background
// goroutine stays diagnosable.
func SafeGo(logger *log.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC: %v\n%s", r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}
