package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"clay.game/internal/sim/rng"
	"clay.game/internal/sim/state"
)

const saveName = "save"

// Store keeps one live save plus save-1..save-N backups in a directory.
type Store struct {
	dir           string
	backups       int
	catalogDigest string
}

func NewStore(dir string, backups int, catalogDigest string) *Store {
	if backups < 0 {
		backups = 0
	}
	return &Store{dir: dir, backups: backups, catalogDigest: catalogDigest}
}

func (s *Store) Path() string { return s.pathFor(0) }

func (s *Store) pathFor(n int) string {
	if n == 0 {
		return filepath.Join(s.dir, saveName+".zst")
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s-%d.zst", saveName, n))
}

// Load returns nil without error when no save exists yet. A catalog digest
// mismatch is not an error; callers compare Header.CatalogDigest themselves.
func (s *Store) Load() (*Saved, error) {
	saved, err := Open(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return saved, err
}

// Open reads the save at path and restores its rng position.
func Open(path string) (*Saved, error) {
	snap, err := ReadSnapshot(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	if snap.State == nil {
		return nil, fmt.Errorf("snapshot %s: empty state", path)
	}
	r := rng.New(0)
	if len(snap.Header.RNG) > 0 {
		if err := r.UnmarshalBinary(snap.Header.RNG); err != nil {
			return nil, fmt.Errorf("snapshot %s: rng: %w", path, err)
		}
	}
	return &Saved{Header: snap.Header, State: snap.State, RNG: r}, nil
}

// DigestMatches reports whether a loaded save was written against the
// catalog this store was opened with.
func (s *Store) DigestMatches(h Header) bool { return h.CatalogDigest == s.catalogDigest }

// Save writes st to a temp file, shifts the backups down by one and renames
// the temp file into place.
func (s *Store) Save(st *state.GameState, r *rng.Stream, now time.Time) (Header, error) {
	pos, err := r.MarshalBinary()
	if err != nil {
		return Header{}, fmt.Errorf("snapshot: rng: %w", err)
	}
	h := Header{
		Version:       FormatVersion,
		SaveVersion:   st.SaveVersion,
		CatalogDigest: s.catalogDigest,
		RNG:           pos,
		SavedAt:       now.UTC(),
	}
	tmp := s.Path() + ".tmp"
	if err := WriteSnapshot(tmp, SnapshotV1{Header: h, State: st}); err != nil {
		_ = os.Remove(tmp)
		return Header{}, fmt.Errorf("snapshot %s: %w", tmp, err)
	}
	if err := s.rotate(); err != nil {
		return Header{}, err
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return Header{}, fmt.Errorf("snapshot: %w", err)
	}
	return h, nil
}

func (s *Store) rotate() error {
	if s.backups == 0 {
		return nil
	}
	for n := s.backups - 1; n >= 0; n-- {
		from := s.pathFor(n)
		if _, err := os.Stat(from); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.Rename(from, s.pathFor(n+1)); err != nil {
			return fmt.Errorf("snapshot: rotate %s: %w", from, err)
		}
	}
	return nil
}

// Backups lists existing backup paths, newest first.
func (s *Store) Backups() []string {
	var out []string
	for n := 1; n <= s.backups; n++ {
		if _, err := os.Stat(s.pathFor(n)); err == nil {
			out = append(out, s.pathFor(n))
		}
	}
	return out
}

// Restore replaces the live save with backup n (1 is the newest). The backup
// must decode; backups themselves are left in place.
func (s *Store) Restore(n int) error {
	if n < 1 || n > s.backups {
		return fmt.Errorf("snapshot: backup %d out of range 1..%d", n, s.backups)
	}
	from := s.pathFor(n)
	if _, err := Open(from); err != nil {
		return err
	}
	b, err := os.ReadFile(from)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}
