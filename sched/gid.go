package sched

import (
	"runtime"
	"strconv"
	"strings"
)

// GoroutineID returns the current goroutine's ID by parsing the stack
// header. This is a workaround since Go doesn't expose goroutine IDs
// directly. Queue ownership checks and the binding cycle guard key on it.
func GoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Stack starts with "goroutine <id> [...]"
	s := string(buf[:n])
	s = strings.TrimPrefix(s, "goroutine ")
	idx := strings.Index(s, " ")
	if idx > 0 {
		s = s[:idx]
	}
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}
