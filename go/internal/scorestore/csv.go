package scorestore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mcdev12/buzzwire/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Header is the first line of every non-empty leaderboard file
const Header = "Player,Time,LivesLeft"

// CSVStore keeps runs in a comma-separated text file, one run per line.
// Fields are not escaped.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore creates a store backed by the file at path. The file is created
// on first append.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file path
func (s *CSVStore) Path() string {
	return s.path
}

// Append adds one run. The header is written when the file is new or empty.
func (s *CSVStore) Append(ctx context.Context, record models.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRecord(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrPersistence, s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrPersistence, s.path, err)
	}

	w := bufio.NewWriter(f)
	if info.Size() == 0 {
		w.WriteString(Header + "\n")
	}
	fmt.Fprintf(w, "%s,%d,%d\n", record.Player, record.ElapsedSeconds, record.LivesLeft)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, s.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", ErrPersistence, s.path, err)
	}
	return nil
}

// List returns every valid run in file order. A missing file is an empty
// store. Malformed lines are skipped.
func (s *CSVStore) List(ctx context.Context) ([]models.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrPersistence, s.path, err)
	}
	defer f.Close()

	var (
		records []models.RunRecord
		skipped int
		lineNo  int
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 && strings.EqualFold(strings.TrimSpace(line), Header) {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, ok := parseLine(line)
		if !ok {
			skipped++
			log.Warn().Str("path", s.path).Int("line", lineNo).Msg("skipping invalid run record")
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, s.path, err)
	}

	if skipped > 0 {
		log.Warn().Str("path", s.path).Int("skipped", skipped).Int("loaded", len(records)).Msg("leaderboard loaded with invalid records")
	}
	return records, nil
}

// Clear truncates the file to empty. The header comes back with the next append.
func (s *CSVStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Truncate(s.path, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: truncate %s: %w", ErrPersistence, s.path, err)
	}
	return nil
}

// Close is a no-op; the file is opened per operation.
func (s *CSVStore) Close() error {
	return nil
}

// parseLine reads player,elapsed,lives. Fields past the third are ignored.
func parseLine(line string) (models.RunRecord, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return models.RunRecord{}, false
	}

	player := strings.TrimSpace(parts[0])
	elapsed, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || elapsed < 0 {
		return models.RunRecord{}, false
	}
	lives, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || lives < 0 {
		return models.RunRecord{}, false
	}
	if player == "" {
		return models.RunRecord{}, false
	}

	return models.RunRecord{Player: player, ElapsedSeconds: elapsed, LivesLeft: lives}, true
}
