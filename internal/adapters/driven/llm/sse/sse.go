// Package sse reads server-sent event streams returned by chat APIs.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// maxLineBytes bounds a single event line.
const maxLineBytes = 1 << 20

// ErrStop ends Read early without error.
var ErrStop = errors.New("sse: stop")

// Event is one dispatched server-sent event.
type Event struct {
	Name string
	Data string
}

// Read parses events from r and calls fn for each. Multi-line data fields
// are joined with newlines. Returning ErrStop from fn ends reading.
func Read(r io.Reader, fn func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var name string
	var data []string
	dispatch := func() error {
		if len(data) == 0 {
			name = ""
			return nil
		}
		ev := Event{Name: name, Data: strings.Join(data, "\n")}
		name, data = "", data[:0]
		return fn(ev)
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if err := dispatch(); err != nil {
				return stopped(err)
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return stopped(dispatch())
}

func stopped(err error) error {
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}
