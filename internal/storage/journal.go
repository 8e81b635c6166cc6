// Package storage keeps an append-only archive of submitted bookings.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

const (
	filePrefix = "bookings_"
	fileSuffix = ".jsonl"
	dayLayout  = "2006-01-02"
)

// Journal writes one JSON line per booking into a file per UTC day. Files
// from previous days are gzip-compressed.
type Journal struct {
	dir      string
	file     *os.File
	day      string
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewJournal creates a journal writing into dir
func NewJournal(dir string) *Journal {
	return &Journal{
		dir:      dir,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start opens today's file, compresses leftovers from earlier days and
// starts the midnight rotation timer.
func (j *Journal) Start() error {
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	j.mu.Lock()
	err := j.rotateFile()
	j.mu.Unlock()
	if err != nil {
		return err
	}

	if err := j.compressOlder(); err != nil {
		log.Warn().Err(err).Msg("Failed to compress old journal files")
	}

	j.wg.Add(1)
	go j.rotationTimer()
	return nil
}

// Stop closes the current file and stops the rotation timer. Calling it
// again is a no-op.
func (j *Journal) Stop() error {
	j.stopOnce.Do(func() { close(j.stopChan) })
	j.wg.Wait()

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		err := j.file.Close()
		j.file = nil
		return err
	}
	return nil
}

// Append writes a booking to the current day's file
func (j *Journal) Append(b *types.Booking) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil || j.day != j.today() {
		if err := j.rotateAndCompress(); err != nil {
			return err
		}
	}

	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write booking: %w", err)
	}
	return nil
}

func (j *Journal) today() string {
	return j.now().UTC().Format(dayLayout)
}

func (j *Journal) path(day string) string {
	return filepath.Join(j.dir, filePrefix+day+fileSuffix)
}

// rotationTimer handles daily rotation at midnight UTC
func (j *Journal) rotationTimer() {
	defer j.wg.Done()

	for {
		now := j.now().UTC()
		nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)

		select {
		case <-time.After(nextMidnight.Sub(now)):
			j.mu.Lock()
			err := j.rotateAndCompress()
			j.mu.Unlock()
			if err != nil {
				log.Error().Err(err).Msg("Journal rotation failed")
			}
		case <-j.stopChan:
			return
		}
	}
}

// rotateAndCompress closes the current file, opens today's and compresses
// the previous one. Callers hold j.mu.
func (j *Journal) rotateAndCompress() error {
	previous := ""
	if j.file != nil {
		previous = j.file.Name()
		if err := j.file.Close(); err != nil {
			log.Warn().Err(err).Str("file", previous).Msg("Failed to close journal file")
		}
		j.file = nil
	}

	if err := j.rotateFile(); err != nil {
		return err
	}

	if previous != "" && previous != j.file.Name() {
		if err := compressFile(previous); err != nil {
			return fmt.Errorf("failed to compress file: %w", err)
		}
	}
	return nil
}

// rotateFile opens the file for the current day. Callers hold j.mu.
func (j *Journal) rotateFile() error {
	day := j.today()
	file, err := os.OpenFile(j.path(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create journal file: %w", err)
	}
	j.file = file
	j.day = day
	return nil
}

// compressOlder compresses uncompressed files from days before today
func (j *Journal) compressOlder() error {
	matches, err := filepath.Glob(filepath.Join(j.dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return err
	}

	current := j.path(j.today())
	for _, path := range matches {
		if path == current {
			continue
		}
		if err := compressFile(path); err != nil {
			return err
		}
	}
	return nil
}

// compressFile gzips path into path.gz and removes the original
func compressFile(path string) error {
	source, err := os.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer target.Close()

	gzipWriter := gzip.NewWriter(target)
	if _, err := io.Copy(gzipWriter, source); err != nil {
		return err
	}
	if err := gzipWriter.Close(); err != nil {
		return err
	}
	if err := target.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}

// Files lists the journal files in dir, oldest first
func Files(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadFile decodes every booking in a journal file, compressed or not
func ReadFile(path string) ([]*types.Booking, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var bookings []*types.Booking
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var b types.Booking
		if err := json.Unmarshal(scanner.Bytes(), &b); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		bookings = append(bookings, &b)
	}
	return bookings, scanner.Err()
}
