// Package save persists chunks to disk: one zstd-compressed RLE file per
// chunk plus a sqlite manifest carrying world metadata and the chunk
// catalog.
package save

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/engine/internal/engine/world"
	"github.com/voxelforge/engine/pkg/voxel"
	"github.com/voxelforge/engine/pkg/voxel/tree"
)

// magic identifies version 1 of the chunk file payload, before compression.
var magic = [4]byte{'V', 'X', 'L', '1'}

// storedEqual is the run-length equality used on disk. Shade is derived by
// the lighting passes and deliberately not persisted, so blocks differing
// only in shade share a run.
func storedEqual(a, b voxel.Block) bool {
	return a.Color == b.Color && a.Shape == b.Shape
}

// encodeChunk serializes a chunk's voxel content to the uncompressed
// payload: header, then one record per run in Morton slot order.
func encodeChunk(c *world.Chunk) ([]byte, error) {
	runs := c.Voxels().Runs(storedEqual)

	var buf bytes.Buffer
	buf.Write(magic[:])
	p := c.Pos()
	hdr := []any{
		int32(p.X), int32(p.Y), int32(p.Z),
		uint16(c.Width()),
		uint32(len(runs)),
	}
	for _, v := range hdr {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("encode header: %w", err)
		}
	}

	for _, r := range runs {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(r.Len)); err != nil {
			return nil, err
		}
		occupied := uint8(0)
		if r.OK {
			occupied = 1
		}
		buf.WriteByte(occupied)
		if !r.OK {
			continue
		}
		rec := []any{
			r.Value.Color.X(), r.Value.Color.Y(), r.Value.Color.Z(), r.Value.Color.W(),
			uint8(r.Value.Shape),
		}
		for _, v := range rec {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				return nil, fmt.Errorf("encode run: %w", err)
			}
		}
	}
	return buf.Bytes(), nil
}

// decodeChunk rebuilds a chunk from an uncompressed payload. Any structural
// mismatch fails the whole load; there is no partial recovery.
func decodeChunk(data []byte) (*world.Chunk, error) {
	r := bytes.NewReader(data)

	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, fmt.Errorf("chunk header: %w", err)
	}
	if m != magic {
		return nil, fmt.Errorf("bad chunk magic %q", m[:])
	}

	var x, y, z int32
	var width uint16
	var runCount uint32
	for _, v := range []any{&x, &y, &z, &width, &runCount} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("chunk header: %w", err)
		}
	}
	if width < 2 || width&(width-1) != 0 {
		return nil, fmt.Errorf("bad chunk width %d", width)
	}

	runs := make([]tree.Run[voxel.Block], 0, runCount)
	for i := uint32(0); i < runCount; i++ {
		var length uint32
		var occupied uint8
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &occupied); err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		run := tree.Run[voxel.Block]{Len: int(length), OK: occupied == 1}
		if run.OK {
			var c [4]float32
			var shape uint8
			for _, v := range []any{&c[0], &c[1], &c[2], &c[3], &shape} {
				if err := binary.Read(r, binary.LittleEndian, v); err != nil {
					return nil, fmt.Errorf("run %d: %w", i, err)
				}
			}
			b := voxel.NewBlock(mgl32.Vec4{c[0], c[1], c[2], c[3]})
			b.Shape = voxel.Shape(shape)
			run.Value = b
		}
		runs = append(runs, run)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after %d runs", r.Len(), runCount)
	}

	grid, err := tree.FromRuns(int(width), runs)
	if err != nil {
		return nil, err
	}
	return world.RestoreChunk(world.Pos{X: int(x), Y: int(y), Z: int(z)}, grid), nil
}
