package port

import "pharmarag/internal/domain"

// ChunkFilter narrows a GetAll scan over the backing store. Zero value means
// no filtering. Name matches the chunk name exactly (case-sensitive);
// NameContains matches case-insensitively anywhere in the name.
type ChunkFilter struct {
	Name         string
	NameContains string
	Limit        int
}

// DocumentBackend is the backing document store: persisted chunks plus the
// vector similarity search over their embeddings.
type DocumentBackend interface {
	// GetAll returns chunks matching the filter, in storage order.
	GetAll(filter ChunkFilter) ([]domain.Chunk, error)

	// SimilaritySearch returns the k most relevant chunks for the query text,
	// best first, with relevance scores in [0,1].
	SimilaritySearch(query string, k int) ([]domain.ScoredPassage, error)

	// DistinctNames returns the sorted set of distinct chunk names.
	DistinctNames() ([]string, error)

	// Identity is a stable identifier of this store instance (its path),
	// mixed into cache keys so a store switch invalidates them.
	Identity() string

	Close() error
}
