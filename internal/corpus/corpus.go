// Package corpus keeps a per-session research corpus of documents fetched
// during a conversation, searchable with BM25. It lets the client re-find
// passages across everything it already pulled without re-fetching from
// the portals.
package corpus

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/google/uuid"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	snippetLen          = 200
)

// DocInput is one document handed over for ingestion.
type DocInput struct {
	VPath string `json:"vpath"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Chunk is the indexed unit.
type Chunk struct {
	DocID      string    `json:"doc_id"`
	VPath      string    `json:"vpath"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	ChunkIndex int       `json:"chunk_index"`
	IngestedAt time.Time `json:"ingested_at"`
}

// IngestResult reports what landed in the index.
type IngestResult struct {
	SessionID string `json:"session_id"`
	Chunks    int    `json:"chunks"`
}

// Hit is one search result.
type Hit struct {
	DocID   string  `json:"doc_id"`
	VPath   string  `json:"vpath"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Manager owns the per-session indexes. Indexes are memory-only and live
// for the process lifetime; the corpus is a working set, not an archive.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]bleve.Index
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]bleve.Index)}
}

// Ingest chunks and indexes docs under the given session, creating the
// session when id is empty or unknown.
func (m *Manager) Ingest(sessionID string, docs []DocInput) (IngestResult, error) {
	if len(docs) == 0 {
		return IngestResult{}, errors.New("no documents provided")
	}
	index, sessionID, err := m.ensureSession(sessionID)
	if err != nil {
		return IngestResult{}, err
	}

	count := 0
	now := time.Now()
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		hash := sha1Hex(doc.Text)
		for i, part := range makeChunks(doc.Text, defaultChunkSize, defaultChunkOverlap) {
			chunk := Chunk{
				DocID:      fmt.Sprintf("%s#%03d", hash, i),
				VPath:      doc.VPath,
				Title:      doc.Title,
				Text:       part,
				ChunkIndex: i,
				IngestedAt: now,
			}
			if err := index.Index(chunk.DocID, chunk); err != nil {
				return IngestResult{}, fmt.Errorf("index chunk: %w", err)
			}
			count++
		}
	}
	return IngestResult{SessionID: sessionID, Chunks: count}, nil
}

// Search runs a BM25 match query over one session's corpus.
func (m *Manager) Search(sessionID, query string, k int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}
	if k < 1 || k > 50 {
		k = 10
	}
	m.mu.Lock()
	index, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown session %q", sessionID)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), k, 0, false)
	req.Fields = []string{"vpath", "title", "text"}
	res, err := index.Search(req)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{DocID: h.ID, Score: h.Score}
		if v, ok := h.Fields["vpath"].(string); ok {
			hit.VPath = v
		}
		if v, ok := h.Fields["title"].(string); ok {
			hit.Title = v
		}
		if v, ok := h.Fields["text"].(string); ok {
			hit.Snippet = snippet(v)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (m *Manager) ensureSession(id string) (bleve.Index, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != "" {
		if index, ok := m.sessions[id]; ok {
			return index, id, nil
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, "", err
	}
	m.sessions[id] = index
	return index, id, nil
}

func sha1Hex(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > snippetLen {
		return text[:snippetLen]
	}
	return text
}

func makeChunks(text string, approx, overlap int) []string {
	text = strings.TrimSpace(text)
	if len(text) <= approx {
		return []string{text}
	}
	var chunks []string
	for start := 0; start < len(text); {
		end := start + approx
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}
