package index

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/akolanti/RagBot/internal/config"
)

// Indexing states as reported to the status endpoint.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Progress is the parsed content of progress.txt. Percent -1 marks a build
// that died, the message then carries the reason.
type Progress struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// WriteProgress replaces progress.txt with "percent,message". One line, so
// a half-written file can never look like two updates.
func WriteProgress(percent int, message string) error {
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return err
	}
	message = strings.ReplaceAll(message, "\n", " ")
	line := fmt.Sprintf("%d,%s", percent, message)
	return os.WriteFile(config.ProgressFilePath(), []byte(line), 0644)
}

// ReadProgress returns the last written progress, false when no build ever
// ran against this data directory.
func ReadProgress() (Progress, bool) {
	data, err := os.ReadFile(config.ProgressFilePath())
	if err != nil {
		return Progress{}, false
	}

	line := strings.TrimSpace(string(data))
	parts := strings.SplitN(line, ",", 2)
	percent, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		// unparseable file, treat as a dead build
		return Progress{Percent: -1, Message: line}, true
	}
	p := Progress{Percent: percent}
	if len(parts) == 2 {
		p.Message = strings.TrimSpace(parts[1])
	}
	return p, true
}

// CurrentStatus folds the progress file into one of the four states.
func CurrentStatus() (string, Progress) {
	p, ok := ReadProgress()
	switch {
	case !ok:
		return StatusNotStarted, p
	case p.Percent < 0:
		return StatusError, p
	case p.Percent >= 100:
		return StatusCompleted, p
	default:
		return StatusInProgress, p
	}
}
