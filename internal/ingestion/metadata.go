package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"
)

// Metadata describes one ingested careers page
type Metadata struct {
	Source     string    `json:"source,omitempty"`
	Format     string    `json:"format"`
	IngestedAt time.Time `json:"ingested_at"`
	Hash       string    `json:"hash"` // SHA-256 hex digest of the cleaned text
	Bytes      int       `json:"bytes"`
	Lines      int       `json:"lines"`
}

// NewMetadata describes cleaned text read from source
func NewMetadata(cleaned, source, format string) *Metadata {
	sum := sha256.Sum256([]byte(cleaned))
	lines := 0
	if cleaned != "" {
		lines = strings.Count(cleaned, "\n") + 1
	}
	return &Metadata{
		Source:     source,
		Format:     format,
		IngestedAt: time.Now().UTC(),
		Hash:       hex.EncodeToString(sum[:]),
		Bytes:      len(cleaned),
		Lines:      lines,
	}
}

// ShortHash is the first 12 hex digits of Hash
func (m *Metadata) ShortHash() string {
	if len(m.Hash) < 12 {
		return m.Hash
	}
	return m.Hash[:12]
}

// LogValue implements slog.LogValuer
func (m *Metadata) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", m.Source),
		slog.String("format", m.Format),
		slog.String("hash", m.ShortHash()),
		slog.Int("bytes", m.Bytes),
		slog.Int("lines", m.Lines),
	)
}
