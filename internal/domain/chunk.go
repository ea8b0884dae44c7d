package domain

// Chunk is one indexed unit of resume content. Chunks are created at
// ingest time and are read-only for the whole process lifetime.
type Chunk struct {
	ID        string
	Title     string
	Text      string
	Tags      []string
	Section   string
	Frame     int64
	Timestamp int64
}

// VisibleAt reports whether the chunk existed at the given time-travel
// cutoff. A zero frame/timestamp cutoff means no restriction.
func (c *Chunk) VisibleAt(asOfFrame, asOfTS int64) bool {
	if asOfFrame > 0 && c.Frame > asOfFrame {
		return false
	}
	if asOfTS > 0 && c.Timestamp > asOfTS {
		return false
	}
	return true
}
