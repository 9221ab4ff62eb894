package domain

// SearchHit is one raw index hit: the document id, the backend's text score,
// and the returned hash fields.
type SearchHit struct {
	DocID  string
	Score  float64
	Fields map[string]string
}
