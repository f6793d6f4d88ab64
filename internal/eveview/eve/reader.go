package eve

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/eveview/eveview/internal/eveview/core"
)

// EventResult is one item off the reader channel: a parsed event or a
// non-fatal error for one line or file.
type EventResult struct {
	Event core.Event
	Err   error
}

// ReadEvents streams NDJSON events from files, or stdin when no files
// are given, on a buffered channel. Malformed lines and unreadable
// files are reported on the channel without stopping the stream. The
// channel is closed once all inputs are consumed.
func ReadEvents(files []string) <-chan EventResult {
	ch := make(chan EventResult, 100)

	go func() {
		defer close(ch)

		if len(files) == 0 {
			readFromReader(os.Stdin, "stdin", ch)
			return
		}

		for _, file := range files {
			f, err := os.Open(file)
			if err != nil {
				ch <- EventResult{
					Err: fmt.Errorf("failed to open file %s: %w", file, err),
				}
				continue
			}
			readFromReader(f, file, ch)
			f.Close()
		}
	}()

	return ch
}

func readFromReader(r io.Reader, source string, ch chan<- EventResult) {
	scanner := bufio.NewScanner(r)
	// Eve records with packet payloads can far exceed the default
	// scanner buffer.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if line == "" {
			continue
		}

		var event core.Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			ch <- EventResult{
				Err: fmt.Errorf("JSON parse error in %s line %d: %w", source, lineNumber, err),
			}
			continue
		}

		ch <- EventResult{Event: event}
	}

	if err := scanner.Err(); err != nil {
		ch <- EventResult{
			Err: fmt.Errorf("scanner error in %s: %w", source, err),
		}
	}
}
