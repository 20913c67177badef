package baseline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	domainerrors "ratchet/internal/core/errors"
	"ratchet/internal/engine/ratchet"

	"github.com/xeipuuv/gojsonschema"
)

const defaultIndent = 4

// Options locates the baseline and its scratch slot.
type Options struct {
	BaselinePath string
	ScratchPath  string
	Indent       int
}

// Store persists the authoritative baseline and the scratch snapshot as JSON files.
// Writes go through a temp file and rename so readers never see a partial document.
type Store struct {
	baselinePath string
	scratchPath  string
	indent       string
	schema       *gojsonschema.Schema
}

func Open(opts Options) (*Store, error) {
	baselinePath := strings.TrimSpace(opts.BaselinePath)
	scratchPath := strings.TrimSpace(opts.ScratchPath)
	if baselinePath == "" {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "baseline path must not be empty")
	}
	if scratchPath == "" {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "scratch path must not be empty")
	}
	if filepath.Clean(baselinePath) == filepath.Clean(scratchPath) {
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeValidationError, "baseline and scratch paths must differ"),
			domainerrors.CtxPath, baselinePath,
		)
	}
	indent := opts.Indent
	if indent <= 0 {
		indent = defaultIndent
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "initialize baseline store")
	}
	return &Store{
		baselinePath: baselinePath,
		scratchPath:  scratchPath,
		indent:       strings.Repeat(" ", indent),
		schema:       schema,
	}, nil
}

func (s *Store) BaselinePath() string { return s.baselinePath }

func (s *Store) ScratchPath() string { return s.scratchPath }

// Load returns the persisted baseline. A missing file is a first run and yields an
// empty snapshot; anything that is not a valid snapshot document is MALFORMED_STATE.
func (s *Store) Load(ctx context.Context) (ratchet.Snapshot, error) {
	return s.read(ctx, s.baselinePath)
}

// Save persists snap, pruned, as the authoritative baseline.
func (s *Store) Save(ctx context.Context, snap ratchet.Snapshot) error {
	return s.write(ctx, s.baselinePath, snap)
}

// LoadScratch returns the scratch snapshot, empty when it was never written.
func (s *Store) LoadScratch(ctx context.Context) (ratchet.Snapshot, error) {
	return s.read(ctx, s.scratchPath)
}

// SaveScratch records the pre-verdict union of baseline and latest results.
func (s *Store) SaveScratch(ctx context.Context, snap ratchet.Snapshot) error {
	return s.write(ctx, s.scratchPath, snap)
}

// ClearScratch resets the scratch slot to an empty document.
func (s *Store) ClearScratch(ctx context.Context) error {
	return s.write(ctx, s.scratchPath, ratchet.Snapshot{})
}

// Encode renders snap exactly as it would be written to disk.
func (s *Store) Encode(snap ratchet.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = ratchet.Snapshot{}
	}
	data, err := json.MarshalIndent(snap.Clone().Prune(), "", s.indent)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode validates data against the snapshot schema and decodes it.
func (s *Store) Decode(data []byte) (ratchet.Snapshot, error) {
	if err := validateDocument(s.schema, data); err != nil {
		return nil, err
	}
	var snap ratchet.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap == nil {
		snap = ratchet.Snapshot{}
	}
	return snap, nil
}

func (s *Store) read(ctx context.Context, path string) (ratchet.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("no snapshot on disk, starting empty", "path", path)
			return ratchet.Snapshot{}, nil
		}
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeIO, "read snapshot"),
			domainerrors.CtxPath, path,
		)
	}

	snap, err := s.Decode(data)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeMalformedState, "snapshot is not a valid file/rule/count document"),
			domainerrors.CtxPath, path,
		)
	}
	return snap, nil
}

func (s *Store) write(ctx context.Context, path string, snap ratchet.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := s.Encode(snap)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "encode snapshot")
	}
	if err := writeAtomic(path, data, 0o644); err != nil {
		return domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeIO, "write snapshot"),
			domainerrors.CtxPath, path,
		)
	}
	slog.Debug("snapshot written", "path", path, "files", len(snap))
	return nil
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
