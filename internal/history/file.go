package history

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// maxLineBytes bounds a single JSON-lines record.
const maxLineBytes = 1 << 20

// FileRepository appends records to a JSON-lines file.
type FileRepository struct {
	path   string
	logger zerolog.Logger

	mu sync.Mutex
}

// NewFileRepository returns a repository writing to path, creating its
// directory when needed.
func NewFileRepository(path string, logger zerolog.Logger) (*FileRepository, error) {
	if path == "" {
		return nil, errors.New("history file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	return &FileRepository{
		path:   path,
		logger: logger.With().Str("component", "history_file").Str("path", path).Logger(),
	}, nil
}

// Save implements Repository.
func (f *FileRepository) Save(_ context.Context, r Record) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening history file: %w", err)
	}
	if _, err := file.Write(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing history file: %w", err)
	}
	return file.Close()
}

// ListByUser implements Repository. Lines that do not decode are skipped.
func (f *FileRepository) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			f.logger.Warn().Err(err).Int("line", lineNo).Msg("skipping corrupt history line")
			continue
		}
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	return newestFirst(records, limit), nil
}

// Close implements Repository.
func (f *FileRepository) Close() error {
	return nil
}
