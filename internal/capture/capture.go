// Package capture records provider exchanges to disk so a bad proposal can be
// replayed or attached to a bug report.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Recorder writes numbered capture files under Dir/<session>/. A nil
// Recorder records nothing.
type Recorder struct {
	dir     string
	session string
	seq     atomic.Uint64
}

// New creates a recorder rooted at dir. An empty dir disables capture and
// returns nil.
func New(dir string) *Recorder {
	if dir == "" {
		return nil
	}
	return &Recorder{dir: dir, session: time.Now().Format("20060102-150405")}
}

// Enabled reports whether the recorder writes anything
func (r *Recorder) Enabled() bool {
	return r != nil
}

// SessionDir is the directory files of this process are written to
func (r *Recorder) SessionDir() string {
	if r == nil {
		return ""
	}
	return filepath.Join(r.dir, r.session)
}

// WriteJSON marshals payload to indented JSON and stores it as
// <category>-NNNN.json. Failures are logged and otherwise ignored; it
// returns the written path or "".
func (r *Recorder) WriteJSON(ctx context.Context, category string, payload any) string {
	if r == nil {
		return ""
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("category", category).Msg("capture: failed to marshal payload")
		return ""
	}
	return r.writeFile(ctx, category, "json", data)
}

// WriteBlob stores arbitrary bytes using the provided extension
func (r *Recorder) WriteBlob(ctx context.Context, category, ext string, data []byte) string {
	if r == nil {
		return ""
	}
	return r.writeFile(ctx, category, ext, data)
}

func (r *Recorder) writeFile(ctx context.Context, category, ext string, data []byte) string {
	logger := zerolog.Ctx(ctx)

	dir := r.SessionDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("capture: failed to create directory")
		return ""
	}

	seq := r.seq.Add(1)
	path := filepath.Join(dir, fmt.Sprintf("%s-%04d.%s", category, seq, ext))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("capture: failed to write file")
		return ""
	}

	logger.Debug().Str("path", path).Msg("capture: wrote file")
	return path
}
