package domain

// Chunk is one stored fragment of a medicine leaflet. Chunks sharing the same
// Name form a single logical document; Section and Index give the order in
// which they were cut from the original markdown.
type Chunk struct {
	ID      string
	Name    string // h1 heading: the medicine name
	Section string // h2 heading the chunk belongs to, may be empty
	Index   int    // position within its section
	Source  string // originating file path, may be empty
	Content string
}

// Document is a reassembled leaflet: all chunks for one name, concatenated in
// (Section, Index) order with a markdown heading emitted at section changes.
type Document struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Source   string `json:"source,omitempty"`
	Content  string `json:"content"`
}

// ScoredPassage is a retrieval candidate with its relevance score in [0,1].
type ScoredPassage struct {
	Chunk Chunk
	Score float64
}

// PassageMetadata describes one passage that contributed to an answer.
type PassageMetadata struct {
	Name           string  `json:"name"`
	Section        string  `json:"section"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
	Preview        string  `json:"preview"`
}

// Answer is the result of one question: the generated text plus the sources
// and per-passage metadata it was grounded on. Sources and Metadata are empty
// when no relevant passages were found.
type Answer struct {
	Response string            `json:"response"`
	Sources  []string          `json:"sources"`
	Metadata []PassageMetadata `json:"metadata"`
}

// NamePage is one page of the medicine name catalog.
type NamePage struct {
	Names       []string `json:"names"`
	TotalCount  int      `json:"total_count"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	TotalPages  int      `json:"total_pages"`
	HasNext     bool     `json:"has_next"`
	HasPrevious bool     `json:"has_previous"`
}

// CacheStats is a point-in-time snapshot of one cache instance.
type CacheStats struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Evictions     uint64  `json:"evictions"`
	TotalRequests uint64  `json:"total_requests"`
	HitRate       float64 `json:"hit_rate_percent"`
	CurrentSize   int     `json:"current_size"`
	MaxSize       int     `json:"max_size"`
}

// OperationStats summarizes recorded durations for one named operation.
type OperationStats struct {
	Operation   string  `json:"operation"`
	Count       uint64  `json:"count"`
	TotalMillis float64 `json:"total_time_ms"`
	AvgMillis   float64 `json:"avg_time_ms"`
	MinMillis   float64 `json:"min_time_ms"`
	MaxMillis   float64 `json:"max_time_ms"`
	RecentAvg   float64 `json:"recent_avg_ms"`
	RecentCount int     `json:"recent_count"`
}
