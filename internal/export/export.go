// Package export dumps every settings record as JSONL.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"dashboard_backend/internal/models"
)

// Lister is the subset of the settings repository the exporter needs.
type Lister interface {
	ListSettings(ctx context.Context, afterUserID string, limit int) ([]models.UserSettings, error)
}

// Destination receives a finished export.
type Destination interface {
	Write(ctx context.Context, data []byte) error
}

// header is the first JSONL line of every export.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type record struct {
	Type      string             `json:"type"`
	UserID    string             `json:"userId"`
	Settings  models.Preferences `json:"settings"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ExportJSONL writes a header line followed by one line per record, ordered by
// user ID. It returns the number of records written.
func ExportJSONL(ctx context.Context, l Lister, pageSize int, w io.Writer) (int, error) {
	if pageSize <= 0 {
		return 0, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{Version: "1", Type: "header", Timestamp: time.Now().UTC()}); err != nil {
		return 0, fmt.Errorf("encode header: %w", err)
	}

	count := 0
	after := ""
	for {
		page, err := l.ListSettings(ctx, after, pageSize)
		if err != nil {
			return count, fmt.Errorf("list settings after %q: %w", after, err)
		}
		for _, s := range page {
			rec := record{Type: "settings", UserID: s.UserID, Settings: s.Preferences, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
			if err := enc.Encode(rec); err != nil {
				return count, fmt.Errorf("encode settings for %s: %w", s.UserID, err)
			}
			count++
		}
		if len(page) < pageSize {
			return count, nil
		}
		after = page[len(page)-1].UserID
	}
}

// Run exports into memory and hands the result to dest.
func Run(ctx context.Context, l Lister, pageSize int, dest Destination) (int, error) {
	var buf bytes.Buffer
	n, err := ExportJSONL(ctx, l, pageSize, &buf)
	if err != nil {
		return n, err
	}
	if err := dest.Write(ctx, buf.Bytes()); err != nil {
		return n, fmt.Errorf("write export: %w", err)
	}
	return n, nil
}

// WriterDestination writes the export to an io.Writer such as stdout or a file.
type WriterDestination struct {
	W io.Writer
}

func (d WriterDestination) Write(_ context.Context, data []byte) error {
	_, err := d.W.Write(data)
	return err
}

// FileDestination writes the export to a local file, replacing any previous content.
type FileDestination struct {
	Path string
}

func (d FileDestination) Write(_ context.Context, data []byte) (err error) {
	f, err := os.Create(d.Path)
	if err != nil {
		return fmt.Errorf("create %s: %w", d.Path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", d.Path, cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", d.Path, err)
	}
	return f.Sync()
}
