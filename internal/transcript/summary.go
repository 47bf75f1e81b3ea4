package transcript

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"
)

type Summary struct {
	Sessions    int
	Tx          int
	Rx          int
	Timeouts    int
	TxBytes     int
	RxBytes     int
	MaxDuration time.Duration
	// Commands counts host commands by their first two fields, e.g. "@AL,05".
	Commands map[string]int
}

func Summarize(records []Record) Summary {
	s := Summary{Commands: map[string]int{}}
	origin := time.Duration(0)
	hasData := false
	sessions := 0

	for _, r := range records {
		if r.Dir == DirStart {
			sessions++
			origin = r.At
			continue
		}
		hasData = true
		at := r.At - origin
		if at > s.MaxDuration {
			s.MaxDuration = at
		}
		switch r.Dir {
		case DirTx:
			s.Tx++
			s.TxBytes += len(r.Data)
			for _, line := range bytes.Split(r.Data, []byte("\n")) {
				if k := commandKey(line); k != "" {
					s.Commands[k]++
				}
			}
		case DirRx:
			s.Rx++
			s.RxBytes += len(r.Data)
		case DirTimeout:
			s.Timeouts++
		}
	}
	if sessions == 0 && hasData {
		sessions = 1
	}
	s.Sessions = sessions
	return s
}

func commandKey(line []byte) string {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return ""
	}
	parts := bytes.SplitN(line, []byte(","), 3)
	if len(parts) >= 2 {
		return string(parts[0]) + "," + string(parts[1])
	}
	return string(parts[0])
}

// Print writes the summary in the key: value layout of the CLI.
func (s Summary) Print(w io.Writer, path string) {
	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "sessions: %d\n", s.Sessions)
	fmt.Fprintf(w, "tx: %d (%d bytes)\n", s.Tx, s.TxBytes)
	fmt.Fprintf(w, "rx: %d (%d bytes)\n", s.Rx, s.RxBytes)
	fmt.Fprintf(w, "timeouts: %d\n", s.Timeouts)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)

	keys := make([]string, 0, len(s.Commands))
	for k := range s.Commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "commands:\n")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Commands[k])
	}
}
