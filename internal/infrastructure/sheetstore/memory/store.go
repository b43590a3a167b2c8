package memory

import (
	"context"
	"sort"
	"sync"
)

// Store keeps sheets in process. It backs dry runs and tests.
type Store struct {
	mu     sync.RWMutex
	sheets map[string][][]string
}

func NewStore(seed map[string][][]string) *Store {
	sheets := make(map[string][][]string, len(seed))
	for name, rows := range seed {
		sheets[name] = copyRows(rows)
	}

	return &Store{sheets: sheets}
}

func (s *Store) ReadAll(_ context.Context, sheet string) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.sheets[sheet]
	if !ok {
		return [][]string{}, nil
	}

	return copyRows(rows), nil
}

func (s *Store) Clear(_ context.Context, sheet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sheets, sheet)
	return nil
}

// WriteAll overwrites rows from the top of the sheet. Rows below the
// written range are kept, as a spreadsheet range update would.
func (s *Store) WriteAll(_ context.Context, sheet string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.sheets[sheet]
	written := copyRows(rows)
	if len(existing) > len(written) {
		written = append(written, copyRows(existing[len(written):])...)
	}
	s.sheets[sheet] = written
	return nil
}

// Sheets lists the sheet names that hold data.
func (s *Store) Sheets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.sheets))
	for name := range s.sheets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
