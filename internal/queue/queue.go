package queue

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/username/hemerologion-bot/pkg/dateutil"
	"github.com/username/hemerologion-bot/pkg/tsv"
	"go.uber.org/zap"
)

// Entry is one queued post
type Entry struct {
	Serial int
	Date   time.Time // local midnight of the posting day
	Chars  int
	Text   string // with real newlines
}

// DateString returns the entry's date in queue format (2023-Jul-18)
func (e Entry) DateString() string {
	return dateutil.FormatPostDate(e.Date)
}

// AppendResult reports what Append did with each candidate entry
type AppendResult struct {
	Added      []Entry
	Duplicates []Entry // date already queued
	OutOfOrder []Entry // date not after the last queued date
}

// Queue is a TSV file of posts waiting to be published. Rows are unique
// by serial and their dates strictly increase.
type Queue struct {
	path    string
	entries []Entry
	logger  *zap.Logger
}

// Load reads the queue at path. A missing file yields an empty queue.
func Load(path string, logger *zap.Logger) (*Queue, error) {
	q := &Queue{path: path, logger: logger}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("Queue file does not exist yet, starting empty",
				zap.String("file", path))
			return q, nil
		}
		return nil, fmt.Errorf("failed to open queue file: %w", err)
	}
	defer f.Close()

	entries, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue %s: %w", path, err)
	}
	q.entries = entries

	logger.Info("Queue loaded",
		zap.String("file", path),
		zap.Int("entries", len(entries)))

	return q, nil
}

// Read parses queue rows: serial, "date", chars, "text". Each row must be
// dated after the one before it.
func Read(r io.Reader) ([]Entry, error) {
	reader := tsv.NewReader(r)
	var entries []Entry
	serials := make(map[int]bool)
	var last time.Time

	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != 4 {
			return nil, fmt.Errorf("row %d has %d fields, want 4", line, len(record))
		}

		serial, err := tsv.ParseNumber(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d serial: %w", line, err)
		}
		if serials[serial] {
			return nil, fmt.Errorf("row %d: duplicate serial %d", line, serial)
		}
		serials[serial] = true

		date, err := dateutil.ParsePostDate(record[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if !last.IsZero() && !date.After(last) {
			return nil, fmt.Errorf("row %d: date %s is not after %s", line,
				dateutil.FormatPostDate(date), dateutil.FormatPostDate(last))
		}
		last = date

		chars, err := tsv.ParseNumber(record[2])
		if err != nil {
			return nil, fmt.Errorf("row %d chars: %w", line, err)
		}

		entries = append(entries, Entry{
			Serial: serial,
			Date:   date,
			Chars:  chars,
			Text:   tsv.UnescapeNewlines(record[3]),
		})
	}

	return entries, nil
}

// Write renders entries as queue rows
func Write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		err := tsv.WriteRow(bw,
			tsv.FormatNumber(e.Serial),
			tsv.Quote(e.DateString()),
			tsv.FormatNumber(e.Chars),
			tsv.Quote(tsv.EscapeNewlines(e.Text)))
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Entries returns all queued entries in file order
func (q *Queue) Entries() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Path returns the queue file path
func (q *Queue) Path() string {
	return q.path
}

// ForDate returns the entries scheduled for the given day
func (q *Queue) ForDate(date time.Time) []Entry {
	var out []Entry
	for _, e := range q.entries {
		if dateutil.IsSameDay(e.Date, date) {
			out = append(out, e)
		}
	}
	return out
}

// Append merges candidates into the queue. Candidates whose date is
// already queued are skipped, as are those not later than the last queued
// date. Added entries get consecutive serials after the highest one.
// Serials and Chars set on candidates are ignored.
func (q *Queue) Append(candidates []Entry) AppendResult {
	var result AppendResult

	queued := make(map[string]bool, len(q.entries))
	maxSerial := 0
	var last time.Time
	for _, e := range q.entries {
		queued[e.DateString()] = true
		if e.Serial > maxSerial {
			maxSerial = e.Serial
		}
		if e.Date.After(last) {
			last = e.Date
		}
	}

	for _, c := range candidates {
		y, m, d := c.Date.Date()
		c.Date = time.Date(y, m, d, 0, 0, 0, 0, time.Local)

		if queued[c.DateString()] {
			result.Duplicates = append(result.Duplicates, c)
			continue
		}
		if !last.IsZero() && !c.Date.After(last) {
			q.logger.Warn("Skipping post dated before end of queue",
				zap.String("date", c.DateString()),
				zap.String("last_queued", dateutil.FormatPostDate(last)))
			result.OutOfOrder = append(result.OutOfOrder, c)
			continue
		}

		maxSerial++
		c.Serial = maxSerial
		c.Chars = countChars(c.Text)

		q.entries = append(q.entries, c)
		queued[c.DateString()] = true
		last = c.Date
		result.Added = append(result.Added, c)
	}

	q.logger.Info("Queue append finished",
		zap.Int("added", len(result.Added)),
		zap.Int("duplicates", len(result.Duplicates)),
		zap.Int("out_of_order", len(result.OutOfOrder)))

	return result
}

// Save writes the queue atomically: a temp file in the same directory is
// renamed over the queue file. The file keeps its mode, 0644 when new.
func (q *Queue) Save() error {
	dir := filepath.Dir(q.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create queue directory: %w", err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(q.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(q.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp queue file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set queue file mode: %w", err)
	}
	if err := Write(tmp, q.entries); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write queue: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp queue file: %w", err)
	}
	if err := os.Rename(tmp.Name(), q.path); err != nil {
		return fmt.Errorf("failed to replace queue file: %w", err)
	}

	q.logger.Info("Queue saved",
		zap.String("file", q.path),
		zap.Int("entries", len(q.entries)))

	return nil
}

func countChars(text string) int {
	return utf8.RuneCountInString(text)
}
