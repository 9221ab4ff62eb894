package db

// Query is the input for a full-text search. Raw is a complete FT query
// string already composed and escaped by the query builder.
type Query struct {
	IndexName    string
	Raw          string
	ReturnFields []string

	// Window is how many score-ordered hits to fetch from offset zero. The
	// caller re-sorts by module priority and paginates client-side, so the
	// window must cover the requested page.
	Window int
}

// Result is the output of a search operation.
type Result struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
