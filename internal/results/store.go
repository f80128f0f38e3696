// Package results persists lookup responses for matched or errored dates to
// the local filesystem.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kennygrant/sanitize"

	"github.com/hmansoor/regprobe/internal/daterange"
)

// Store writes one HTML artifact plus a metadata sidecar per saved response,
// under a results directory created on demand.
type Store struct {
	dir string
}

// Metadata is the JSON sidecar written next to each saved response.
type Metadata struct {
	Identifier string    `json:"identifier"`
	Date       string    `json:"date"`
	StatusCode int       `json:"status_code"`
	Bytes      int       `json:"bytes"`
	SavedAt    time.Time `json:"saved_at"`
}

// NewStore creates the results directory if absent and returns a Store
// rooted there.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("results directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create results dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the raw body under a name derived from the identifier, date,
// and, for non-success responses, the status code. It returns the artifact
// file name. Concurrent saves for distinct dates never collide; a duplicate
// save for the same date simply overwrites the identical artifact.
func (s *Store) Save(ctx context.Context, identifier string, date time.Time, body string, statusCode int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}

	name := fileName(identifier, date, statusCode)
	target := filepath.Join(s.dir, name)
	if err := os.WriteFile(target, []byte(body), 0o600); err != nil {
		return "", fmt.Errorf("write response %s: %w", target, err)
	}
	if err := s.writeMeta(target, identifier, date, statusCode, len(body)); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Store) writeMeta(htmlPath, identifier string, date time.Time, statusCode, size int) error {
	meta := Metadata{
		Identifier: identifier,
		Date:       date.Format(daterange.Layout),
		StatusCode: statusCode,
		Bytes:      size,
		SavedAt:    time.Now().UTC(),
	}
	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	metaPath := htmlPath[:len(htmlPath)-len(filepath.Ext(htmlPath))] + ".json"
	if err := os.WriteFile(metaPath, payload, 0o600); err != nil {
		return fmt.Errorf("write metadata %s: %w", metaPath, err)
	}
	return nil
}

func fileName(identifier string, date time.Time, statusCode int) string {
	prefix := ""
	if statusCode != http.StatusOK {
		prefix = fmt.Sprintf("HTTP%d_", statusCode)
	}
	return fmt.Sprintf("%s%s_%s.html", prefix, sanitize.BaseName(identifier), date.Format(daterange.Layout))
}
