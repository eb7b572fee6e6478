package fsindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// index.vec layout, little endian:
//
//	magic [4]byte "PQVX"
//	version uint32
//	dim uint32
//	count uint32
//	build [16]byte
//	count*dim float32
//
// build is a per-rebuild UUID also stored in index.db; a mismatch means the
// two files come from different rebuilds.
var vecMagic = [4]byte{'P', 'Q', 'V', 'X'}

const (
	vecVersion    uint32 = 2
	vecHeaderSize        = 32

	// maxDimensions bounds the header before any size arithmetic.
	maxDimensions = 1 << 16
)

var (
	bucketMeta   = []byte("meta")
	bucketChunks = []byte("chunks")
	keyIndex     = []byte("index")
	keyBuild     = []byte("build")
)

func writeVectors(path string, build uuid.UUID, entries []domain.IndexEntry) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create vector file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	dim := len(entries[0].Vector)
	header := []uint32{vecVersion, uint32(dim), uint32(len(entries))}
	if _, err := w.Write(vecMagic[:]); err != nil {
		return fmt.Errorf("failed to write vector header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write vector header: %w", err)
	}
	if _, err := w.Write(build[:]); err != nil {
		return fmt.Errorf("failed to write vector header: %w", err)
	}

	buf := make([]byte, 4*dim)
	for _, e := range entries {
		for i, v := range e.Vector {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("failed to write vectors: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush vectors: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync vectors: %w", err)
	}
	return f.Close()
}

// vectorFile is the decoded content of index.vec
type vectorFile struct {
	build   uuid.UUID
	dim     int
	vectors [][]float32
}

func readVectors(path string) (vectorFile, error) {
	var out vectorFile

	f, err := os.Open(path)
	if err != nil {
		return out, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return out, err
	}

	r := bufio.NewReader(f)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return out, fmt.Errorf("read magic: %w", err)
	}
	if magic != vecMagic {
		return out, errors.New("bad magic")
	}

	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return out, fmt.Errorf("read header: %w", err)
	}
	version, dim, count := header[0], int64(header[1]), int64(header[2])
	if version != vecVersion {
		return out, fmt.Errorf("unsupported version %d", version)
	}
	if dim == 0 || dim > maxDimensions {
		return out, fmt.Errorf("dimension %d out of range", dim)
	}
	if _, err := io.ReadFull(r, out.build[:]); err != nil {
		return out, fmt.Errorf("read build id: %w", err)
	}

	body := info.Size() - vecHeaderSize
	rowSize := 4 * dim
	if body < 0 || count > body/rowSize {
		return out, fmt.Errorf("header claims %d vectors of %d dimensions but only %d bytes follow", count, dim, body)
	}
	if body != count*rowSize {
		return out, fmt.Errorf("size %d does not match header (want %d)", info.Size(), vecHeaderSize+count*rowSize)
	}

	out.dim = int(dim)
	out.vectors = make([][]float32, count)
	buf := make([]byte, rowSize)
	for i := range out.vectors {
		if _, err := io.ReadFull(r, buf); err != nil {
			return out, fmt.Errorf("read vector %d: %w", i, err)
		}
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		out.vectors[i] = v
	}
	return out, nil
}

func writeMeta(path string, build uuid.UUID, meta domain.IndexMetadata, entries []domain.IndexEntry) error {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open metadata db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		mb, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := mb.Put(keyIndex, data); err != nil {
			return err
		}
		if err := mb.Put(keyBuild, build[:]); err != nil {
			return err
		}

		cb, err := tx.CreateBucketIfNotExists(bucketChunks)
		if err != nil {
			return err
		}
		for i, e := range entries {
			data, err := json.Marshal(e.Chunk)
			if err != nil {
				return err
			}
			if err := cb.Put(itob(uint64(i)), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return db.Close()
}

func readMeta(path string) (uuid.UUID, domain.IndexMetadata, []domain.Chunk, error) {
	var (
		build  uuid.UUID
		meta   domain.IndexMetadata
		chunks []domain.Chunk
	)

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second, ReadOnly: true})
	if err != nil {
		return build, meta, nil, fmt.Errorf("open metadata db: %w", err)
	}
	defer db.Close()

	err = db.View(func(tx *bbolt.Tx) error {
		mb := tx.Bucket(bucketMeta)
		cb := tx.Bucket(bucketChunks)
		if mb == nil || cb == nil {
			return errors.New("missing buckets")
		}

		data := mb.Get(keyIndex)
		if data == nil {
			return errors.New("missing index metadata")
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("decode metadata: %w", err)
		}
		id, err := uuid.FromBytes(mb.Get(keyBuild))
		if err != nil {
			return fmt.Errorf("decode build id: %w", err)
		}
		build = id

		// Keys are big-endian sequence numbers, so cursor order is insertion order.
		return cb.ForEach(func(k, v []byte) error {
			var c domain.Chunk
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("decode chunk %x: %w", k, err)
			}
			chunks = append(chunks, c)
			return nil
		})
	})
	if err != nil {
		return build, meta, nil, err
	}
	return build, meta, chunks, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
