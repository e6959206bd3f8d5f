package broadcaster

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ConsoleSink renders every Event as one timestamped line. Thread-safe;
// color output is automatically enabled for os.Stdout/os.Stderr when they
// are TTYs.
type ConsoleSink struct {
	writer      io.Writer
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleSink builds a ConsoleSink writing to w. A nil w discards every
// event.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{writer: w, colorOutput: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout {
		return isatty.IsTerminal(os.Stdout.Fd())
	}
	if w == os.Stderr {
		return isatty.IsTerminal(os.Stderr.Fd())
	}
	return false
}

// kindColor picks the accent color for a Kind: green for completion/success
// events, yellow for conflicts/rejections, cyan for everything else.
func kindColor(k Kind) *color.Color {
	switch k {
	case KindBranchExecutionFinished, KindMergeRequestCompleted, KindMergeRequestApproved:
		return color.New(color.FgGreen)
	case KindMergeConflictsDetected, KindMergeRequestRejected, KindBranchAborted:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// Broadcast renders one line: "[HH:MM:SS] <kind> field=value field=value".
// Fields are sorted by key for deterministic output.
func (s *ConsoleSink) Broadcast(event Event) {
	if s.writer == nil {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ts := time.UnixMilli(event.Timestamp).Format("15:04:05")
	keys := make([]string, 0, len(event.Fields))
	for k := range event.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fields string
	for _, k := range keys {
		fields += fmt.Sprintf(" %s=%v", k, event.Fields[k])
	}

	var line string
	if s.colorOutput {
		kindText := kindColor(event.Kind).Sprint(string(event.Kind))
		line = fmt.Sprintf("[%s] %s%s\n", ts, kindText, fields)
	} else {
		line = fmt.Sprintf("[%s] %s%s\n", ts, event.Kind, fields)
	}
	s.writer.Write([]byte(line))
}
