package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// Artifact bucket layout. Each bucket deserializes independently so a
// corrupt segment disables one search mode instead of the whole index.
var (
	bucketMeta     = []byte("meta")
	bucketChunks   = []byte("chunks")
	bucketPostings = []byte("postings")
	bucketVectors  = []byte("vectors")
	bucketEntities = []byte("entities")
	keyFormat      = []byte("format")
)

// FormatVersion is the artifact version this reader understands.
const FormatVersion = 1

type metaRecord struct {
	Version     int     `json:"version"`
	ChunkCount  int     `json:"chunk_count"`
	AvgChunkLen float64 `json:"avg_chunk_len"`
}

type chunkRecord struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	Tags      []string `json:"tags"`
	Section   string   `json:"section"`
	Frame     int64    `json:"frame"`
	Timestamp int64    `json:"ts"`
	Length    int      `json:"length"`
}

// Open loads the artifact at path. The meta and chunks segments are
// mandatory: failure there is ErrIndexUnreadable. The postings and
// vectors segments are optional: a decode failure marks the matching
// mode disabled and keeps the rest usable. The file is read fully into
// memory and closed before Open returns.
func Open(path string, logger *zap.Logger) (*Handle, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		ReadOnly: true,
		Timeout:  time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrIndexUnreadable, path, err)
	}
	defer func() { _ = db.Close() }()

	h := &Handle{
		path:     path,
		chunks:   make(map[string]domain.Chunk),
		lengths:  make(map[string]int),
		postings: make(map[string][]Posting),
		vectors:  make(map[string][]float32),
		entities: make(map[string]map[string]string),
	}

	err = db.View(func(tx *bbolt.Tx) error {
		if err := loadMeta(tx, h); err != nil {
			return err
		}
		if err := loadChunks(tx, h); err != nil {
			return err
		}
		h.lexicalEnabled = loadPostings(tx, h, logger)
		h.vectorEnabled = loadVectors(tx, h, logger)
		loadEntities(tx, h, logger)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("index loaded",
		zap.String("path", path),
		zap.Int("chunks", len(h.chunks)),
		zap.Int("terms", len(h.postings)),
		zap.Int("vectors", len(h.vectors)),
		zap.Int("entities", len(h.entities)),
		zap.Bool("lexical_enabled", h.lexicalEnabled),
		zap.Bool("vector_enabled", h.vectorEnabled),
	)

	return h, nil
}

func loadMeta(tx *bbolt.Tx, h *Handle) error {
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return fmt.Errorf("%w: missing meta bucket", domain.ErrIndexUnreadable)
	}
	data := b.Get(keyFormat)
	if data == nil {
		return fmt.Errorf("%w: missing format record", domain.ErrIndexUnreadable)
	}
	var meta metaRecord
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("%w: decode format record: %v", domain.ErrIndexUnreadable, err)
	}
	if meta.Version != FormatVersion {
		return fmt.Errorf("%w: unsupported format version %d", domain.ErrIndexUnreadable, meta.Version)
	}
	h.stats = Stats{ChunkCount: meta.ChunkCount, AvgChunkLen: meta.AvgChunkLen}
	return nil
}

func loadChunks(tx *bbolt.Tx, h *Handle) error {
	b := tx.Bucket(bucketChunks)
	if b == nil {
		return fmt.Errorf("%w: missing chunks bucket", domain.ErrIndexUnreadable)
	}
	err := b.ForEach(func(k, v []byte) error {
		var rec chunkRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("decode chunk %s: %w", k, err)
		}
		h.chunks[rec.ID] = domain.Chunk{
			ID:        rec.ID,
			Title:     rec.Title,
			Text:      rec.Text,
			Tags:      rec.Tags,
			Section:   rec.Section,
			Frame:     rec.Frame,
			Timestamp: rec.Timestamp,
		}
		h.lengths[rec.ID] = rec.Length
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnreadable, err)
	}
	// Recompute stats when the ingest pipeline left them empty.
	if h.stats.ChunkCount == 0 {
		h.stats.ChunkCount = len(h.chunks)
		total := 0
		for _, l := range h.lengths {
			total += l
		}
		if len(h.lengths) > 0 {
			h.stats.AvgChunkLen = float64(total) / float64(len(h.lengths))
		}
	}
	return nil
}

// loadPostings returns false (segment disabled) on any decode failure.
func loadPostings(tx *bbolt.Tx, h *Handle, logger *zap.Logger) bool {
	b := tx.Bucket(bucketPostings)
	if b == nil {
		logger.Warn("lexical segment missing, lexical search disabled")
		return false
	}
	err := b.ForEach(func(k, v []byte) error {
		var list []Posting
		if err := json.Unmarshal(v, &list); err != nil {
			return fmt.Errorf("decode postings for term %q: %w", k, err)
		}
		h.postings[string(k)] = list
		return nil
	})
	if err != nil {
		logger.Warn("lexical segment corrupt, lexical search disabled", zap.Error(err))
		h.postings = make(map[string][]Posting)
		return false
	}
	return true
}

// loadVectors returns false (segment disabled) on any decode failure or
// dimensionality mismatch between stored vectors.
func loadVectors(tx *bbolt.Tx, h *Handle, logger *zap.Logger) bool {
	b := tx.Bucket(bucketVectors)
	if b == nil {
		logger.Warn("vector segment missing, semantic search disabled")
		return false
	}
	err := b.ForEach(func(k, v []byte) error {
		vec, err := bytesToVector(v)
		if err != nil {
			return fmt.Errorf("decode vector for chunk %s: %w", k, err)
		}
		if h.vectorDim == 0 {
			h.vectorDim = len(vec)
		} else if len(vec) != h.vectorDim {
			return fmt.Errorf("vector for chunk %s has dim %d, want %d", k, len(vec), h.vectorDim)
		}
		h.vectors[string(k)] = vec
		return nil
	})
	if err != nil {
		logger.Warn("vector segment corrupt, semantic search disabled", zap.Error(err))
		h.vectors = make(map[string][]float32)
		h.vectorDim = 0
		return false
	}
	return true
}

// loadEntities skips individually corrupt records: an entity map miss
// surfaces as EntityNotFound at lookup time, which is the right failure
// granularity for O(1) state reads.
func loadEntities(tx *bbolt.Tx, h *Handle, logger *zap.Logger) {
	b := tx.Bucket(bucketEntities)
	if b == nil {
		return
	}
	_ = b.ForEach(func(k, v []byte) error {
		var slots map[string]string
		if err := json.Unmarshal(v, &slots); err != nil {
			logger.Warn("skipping corrupt entity record", zap.String("entity", string(k)), zap.Error(err))
			return nil
		}
		h.entities[string(k)] = slots
		return nil
	})
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector data: len=%d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
