// Package store keeps rendered artifacts for later download.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docforge/internal/doctree"
)

// ErrNotFound is returned when no artifact matches.
var ErrNotFound = errors.New("artifact not found")

// Artifact is one stored file.
type Artifact struct {
	ID          string          `json:"artifact_id"`
	JobID       string          `json:"job_id"`
	Kind        doctree.DocKind `json:"kind"`
	Format      string          `json:"format"`
	Filename    string          `json:"filename"`
	ContentType string          `json:"content_type"`
	Hash        string          `json:"content_hash"`
	Pages       int             `json:"pages"`
	Size        int             `json:"size"`
	CreatedAt   time.Time       `json:"created_at"`
	Data        []byte          `json:"-"`
}

// Store persists artifacts.
type Store interface {
	// Put assigns ID and CreatedAt when unset and saves a.
	Put(ctx context.Context, a *Artifact) error
	Get(ctx context.Context, id string) (*Artifact, error)
	// FindByHash returns the oldest artifact with the given content hash,
	// breaking CreatedAt ties on the lowest ID.
	FindByHash(ctx context.Context, hash string) (*Artifact, error)
	ListByJob(ctx context.Context, jobID string) ([]*Artifact, error)
	// Cleanup deletes artifacts created before cutoff and reports how many.
	Cleanup(ctx context.Context, cutoff time.Time) (int, error)
	Close()
}

// Hash is the dedup key for a rendering of text as kind in format. extra
// holds any other rendering input, such as the date injected into a cover
// letter.
func Hash(text string, kind doctree.DocKind, format string, extra ...string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write([]byte(text))
	for _, e := range extra {
		h.Write([]byte{0})
		h.Write([]byte(e))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func prepare(a *Artifact) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Size = len(a.Data)
}
