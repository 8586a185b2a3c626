package broker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one journaled venue action.
type Entry struct {
	Kind   string    `json:"kind"` // open | modify | partial_close | close
	Ticket string    `json:"ticket"`
	Symbol string    `json:"symbol,omitempty"`
	Side   string    `json:"side,omitempty"`
	Volume float64   `json:"volume,omitempty"`
	Price  float64   `json:"price,omitempty"`
	Stop   float64   `json:"stop,omitempty"`
	Target float64   `json:"target,omitempty"`
	PnL    float64   `json:"pnl,omitempty"`
	Ts     time.Time `json:"ts"`
}

// Journal appends venue actions as JSON lines for later analysis. A nil
// *Journal is valid and records nothing.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJournal creates/opens the target file and returns a journal.
func NewJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Journal{file: file, enc: json.NewEncoder(file)}, nil
}

// Record writes a single entry.
func (j *Journal) Record(e Entry) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if e.Ts.IsZero() {
		e.Ts = time.Now()
	}
	_ = j.enc.Encode(e)
}

// Close flushes and closes the file handle.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
