package index

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"
)

// artifact describes the contents of a test index file. Nil segment
// maps are omitted entirely; rawPostings/rawVectors inject corrupt
// bytes to exercise the disabled-segment paths.
type artifact struct {
	meta        []byte // nil = omit meta record
	chunks      map[string][]byte
	postings    map[string][]byte
	vectors     map[string][]byte
	entities    map[string][]byte
	omitMeta    bool
	omitChunks  bool
	omitPost    bool
	omitVectors bool
}

func defaultMeta(t *testing.T, chunkCount int, avgLen float64) []byte {
	t.Helper()
	data, err := json.Marshal(metaRecord{Version: FormatVersion, ChunkCount: chunkCount, AvgChunkLen: avgLen})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func chunkJSON(t *testing.T, rec chunkRecord) []byte {
	t.Helper()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func postingsJSON(t *testing.T, list []Posting) []byte {
	t.Helper()
	data, err := json.Marshal(list)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func vectorBytes(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// writeArtifact creates a bbolt index file in a temp dir and returns its path.
func writeArtifact(t *testing.T, a artifact) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.idx")

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		t.Fatalf("open artifact for writing: %v", err)
	}
	defer db.Close()

	err = db.Update(func(tx *bbolt.Tx) error {
		put := func(bucket []byte, entries map[string][]byte) error {
			b, err := tx.CreateBucketIfNotExists(bucket)
			if err != nil {
				return err
			}
			for k, v := range entries {
				if err := b.Put([]byte(k), v); err != nil {
					return err
				}
			}
			return nil
		}
		if !a.omitMeta {
			meta := a.meta
			entries := map[string][]byte{}
			if meta != nil {
				entries[string(keyFormat)] = meta
			}
			if err := put(bucketMeta, entries); err != nil {
				return err
			}
		}
		if !a.omitChunks {
			if err := put(bucketChunks, a.chunks); err != nil {
				return err
			}
		}
		if !a.omitPost {
			if err := put(bucketPostings, a.postings); err != nil {
				return err
			}
		}
		if !a.omitVectors {
			if err := put(bucketVectors, a.vectors); err != nil {
				return err
			}
		}
		if a.entities != nil {
			if err := put(bucketEntities, a.entities); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

// validArtifact builds a small three-chunk index with all segments present.
func validArtifact(t *testing.T) artifact {
	t.Helper()
	return artifact{
		meta: defaultMeta(t, 3, 4),
		chunks: map[string][]byte{
			"c1": chunkJSON(t, chunkRecord{ID: "c1", Title: "Skills", Text: "Python and Go experience", Tags: []string{"skills"}, Frame: 1, Timestamp: 100, Length: 4}),
			"c2": chunkJSON(t, chunkRecord{ID: "c2", Title: "Education", Text: "Computer science degree", Tags: []string{"education"}, Frame: 2, Timestamp: 200, Length: 3}),
			"c3": chunkJSON(t, chunkRecord{ID: "c3", Title: "Experience", Text: "Led Python platform team", Tags: []string{"experience"}, Frame: 3, Timestamp: 300, Length: 4}),
		},
		postings: map[string][]byte{
			"python": postingsJSON(t, []Posting{{ChunkID: "c1", TF: 1}, {ChunkID: "c3", TF: 1}}),
			"degree": postingsJSON(t, []Posting{{ChunkID: "c2", TF: 1}}),
		},
		vectors: map[string][]byte{
			"c1": vectorBytes([]float32{1, 0, 0}),
			"c2": vectorBytes([]float32{0, 1, 0}),
			"c3": vectorBytes([]float32{0.7, 0.7, 0}),
		},
		entities: map[string][]byte{
			"__profile__": []byte(`{"name":"Ada","title":"Engineer"}`),
		},
	}
}
