package buffer

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/coffersTech/tierlog/internal/model"
)

// JournalRecord is one framed entry in the journal.
type JournalRecord struct {
	Priority model.Priority `json:"priority"`
	Entry    model.RawEntry `json:"entry"`
}

// Journal is an append-only file of tier entries used to rebuild a Store
// after a restart.
// Frame format: [Len uint32 LE][JSON record].
type Journal struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// OpenJournal opens or creates a journal file at path.
func OpenJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return &Journal{file: f, path: path}, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Write appends a single record.
func (j *Journal) Write(p model.Priority, entry model.RawEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return writeFrame(j.file, JournalRecord{Priority: p, Entry: entry})
}

func writeFrame(w io.Writer, rec JournalRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Sync flushes the journal to stable storage.
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Sync()
}

// Reset truncates the journal.
func (j *Journal) Reset() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.file.Truncate(0); err != nil {
		return err
	}
	_, err := j.file.Seek(0, io.SeekStart)
	return err
}

// Close closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// Replay reads every record in the journal, in write order.
// A torn trailing frame is reported as an error together with the records
// decoded before it.
func (j *Journal) Replay() ([]JournalRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	// The file is in append mode, so later writes still land at the end.

	r := bufio.NewReader(j.file)
	var records []JournalRecord
	for {
		var lenBuf [4]byte
		_, err := io.ReadFull(r, lenBuf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return records, fmt.Errorf("journal replay (len): %w", err)
		}

		data := make([]byte, binary.LittleEndian.Uint32(lenBuf[:]))
		if _, err := io.ReadFull(r, data); err != nil {
			return records, fmt.Errorf("journal replay (data): %w", err)
		}

		var rec JournalRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return records, fmt.Errorf("journal replay (unmarshal): %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// rewrite atomically replaces the journal contents with records.
func (j *Journal) rewrite(records []JournalRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tmpPath := j.path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if err := writeFrame(w, rec); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, j.path); err != nil {
		return err
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	j.file.Close()
	j.file = f
	return nil
}

// ReplayJournal restores every tier from j. Records are applied in journal
// order; an error is returned alongside a partial restore when the journal
// ends in a torn frame.
func (s *Store) ReplayJournal(j *Journal) (int, error) {
	records, err := j.Replay()

	byTier := make(map[model.Priority][]model.RawEntry)
	for _, rec := range records {
		if !rec.Priority.Valid() {
			continue
		}
		byTier[rec.Priority] = append(byTier[rec.Priority], rec.Entry)
	}
	for _, p := range model.Priorities() {
		s.Restore(p, byTier[p])
	}
	return len(records), err
}

// Checkpoint rewrites j so it holds exactly the entries retained by the
// store. All tiers are locked for the duration, so no append is lost.
func (s *Store) Checkpoint(j *Journal) error {
	for _, t := range s.tiers {
		t.mu.Lock()
	}
	defer func() {
		for _, t := range s.tiers {
			t.mu.Unlock()
		}
	}()

	var records []JournalRecord
	for _, p := range model.Priorities() {
		for _, e := range s.tiers[p].ring.GetAll() {
			records = append(records, JournalRecord{Priority: p, Entry: e})
		}
	}
	return j.rewrite(records)
}
