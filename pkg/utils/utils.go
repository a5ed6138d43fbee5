package utils

import (
	"runtime/debug"
	"time"

	"trade-signal-bot/pkg/logger"
)

// GoSafe runs fn in a goroutine. A panic in fn is logged and swallowed.
func GoSafe(log *logger.Logger, fn func()) {
	go func() {
		defer Recover(log, "goroutine")
		fn()
	}()
}

// Recover logs a recovered panic with its stack. It must be deferred
// directly, e.g. defer utils.Recover(log, "telegram update").
func Recover(log *logger.Logger, where string) {
	if r := recover(); r != nil {
		log.Error("Recovered from panic",
			logger.StringField("where", where),
			logger.Field("panic", r),
			logger.StringField("stack", string(debug.Stack())))
	}
}

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}

// TimeNowUTC returns the current time in UTC.
func TimeNowUTC() time.Time {
	return time.Now().UTC()
}
