package runtime

import (
	"fmt"
	"runtime"
	"strings"
)

// BuildInfo is filled in by main at startup from the -ldflags values.
var BuildInfo = struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitHash   string `json:"githash"`
	Built     string `json:"built"`
	GoVersion string `json:"go_version"`
}{
	GoVersion: runtime.Version(),
}

// PrintStackTrace formats the calling goroutine's stack, skipping the
// innermost skip frames.
func PrintStackTrace(skip int) string {
	pc := make([]uintptr, 32)
	n := runtime.Callers(skip, pc)
	frames := runtime.CallersFrames(pc[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return sb.String()
}
