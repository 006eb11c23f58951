package save

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/voxelforge/engine/internal/engine/world"
)

const schema = `
CREATE TABLE IF NOT EXISTS world (
	id          INTEGER PRIMARY KEY CHECK (id = 0),
	seed        INTEGER NOT NULL,
	chunk_width INTEGER NOT NULL,
	noise_kind  TEXT NOT NULL,
	saved_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	x        INTEGER NOT NULL,
	y        INTEGER NOT NULL,
	z        INTEGER NOT NULL,
	cells    INTEGER NOT NULL,
	file     TEXT NOT NULL,
	saved_at TEXT NOT NULL,
	PRIMARY KEY (x, y, z)
);`

// Meta is the world-level state kept in the manifest.
type Meta struct {
	Seed       int64
	ChunkWidth int
	NoiseKind  string
}

// Store persists chunks under one directory: compressed chunk files plus a
// manifest.db sqlite catalog.
type Store struct {
	dir string
	log *slog.Logger
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open creates or opens a world save directory.
func Open(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "manifest.db"))
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init manifest schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{dir: dir, log: log, db: db, enc: enc, dec: dec}, nil
}

// Close releases the manifest handle and compressor state.
func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// SaveMeta upserts the world row.
func (s *Store) SaveMeta(m Meta) error {
	_, err := s.db.Exec(`
		INSERT INTO world (id, seed, chunk_width, noise_kind, saved_at)
		VALUES (0, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			seed = excluded.seed,
			chunk_width = excluded.chunk_width,
			noise_kind = excluded.noise_kind,
			saved_at = excluded.saved_at`,
		m.Seed, m.ChunkWidth, m.NoiseKind, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save world meta: %w", err)
	}
	return nil
}

// Meta reads the world row; ok is false for a fresh save directory.
func (s *Store) Meta() (m Meta, ok bool, err error) {
	row := s.db.QueryRow(`SELECT seed, chunk_width, noise_kind FROM world WHERE id = 0`)
	switch err := row.Scan(&m.Seed, &m.ChunkWidth, &m.NoiseKind); {
	case errors.Is(err, sql.ErrNoRows):
		return Meta{}, false, nil
	case err != nil:
		return Meta{}, false, fmt.Errorf("read world meta: %w", err)
	}
	return m, true, nil
}

func chunkFile(p world.Pos) string {
	return fmt.Sprintf("c.%d.%d.%d.vxl", p.X, p.Y, p.Z)
}

// SaveChunk writes one chunk file atomically and records it in the
// manifest.
func (s *Store) SaveChunk(c *world.Chunk) error {
	payload, err := encodeChunk(c)
	if err != nil {
		return fmt.Errorf("encode chunk %s: %w", c.Pos(), err)
	}
	data := s.enc.EncodeAll(payload, nil)

	name := chunkFile(c.Pos())
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}

	p := c.Pos()
	_, err = s.db.Exec(`
		INSERT INTO chunks (x, y, z, cells, file, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (x, y, z) DO UPDATE SET
			cells = excluded.cells,
			file = excluded.file,
			saved_at = excluded.saved_at`,
		p.X, p.Y, p.Z, c.Voxels().Len(), name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record chunk %s: %w", p, err)
	}
	return nil
}

// LoadChunk reads one chunk, or nil when it was never saved. A present but
// unreadable chunk is an error; malformed data never loads partially.
func (s *Store) LoadChunk(p world.Pos) (*world.Chunk, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, chunkFile(p)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read chunk %s: %w", p, err)
	}
	payload, err := s.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk %s: %w", p, err)
	}
	c, err := decodeChunk(payload)
	if err != nil {
		return nil, fmt.Errorf("decode chunk %s: %w", p, err)
	}
	if c.Pos() != p {
		return nil, fmt.Errorf("chunk file %s holds %s", chunkFile(p), c.Pos())
	}
	return c, nil
}

// SaveWorld writes every chunk in the index plus the world meta row.
func (s *Store) SaveWorld(ix *world.Index, m Meta) error {
	if err := s.SaveMeta(m); err != nil {
		return err
	}

	var chunks []*world.Chunk
	ix.ForEach(func(c *world.Chunk) bool {
		chunks = append(chunks, c)
		return true
	})
	for _, c := range chunks {
		if err := s.SaveChunk(c); err != nil {
			return err
		}
	}
	s.log.Info("world saved", "chunks", len(chunks), "dir", s.dir)
	return nil
}

// LoadWorld streams every cataloged chunk to fn in manifest order. The
// first undecodable chunk aborts the load.
func (s *Store) LoadWorld(fn func(*world.Chunk)) error {
	rows, err := s.db.Query(`SELECT x, y, z FROM chunks ORDER BY x, y, z`)
	if err != nil {
		return fmt.Errorf("read chunk catalog: %w", err)
	}
	defer rows.Close()

	var positions []world.Pos
	for rows.Next() {
		var p world.Pos
		if err := rows.Scan(&p.X, &p.Y, &p.Z); err != nil {
			return fmt.Errorf("read chunk catalog: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read chunk catalog: %w", err)
	}

	for _, p := range positions {
		c, err := s.LoadChunk(p)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("chunk %s cataloged but file missing", p)
		}
		fn(c)
	}
	s.log.Info("world loaded", "chunks", len(positions), "dir", s.dir)
	return nil
}
