// Package dataset loads benchmark queries and ground-truth relevance judgments.
package dataset

// Query is one ambiguous benchmark query with its relevance judgments.
// Queries are immutable once loaded and shared read-only across rounds.
type Query struct {
	// ID identifies the query, formatted as "<topic>/<seed image ID>".
	ID string

	// Topic is the ground-truth label file the query was drawn from.
	Topic string

	// ImgID is the ambiguous seed image.
	ImgID int64

	// Relevant holds the image IDs judged correct for this query.
	Relevant map[int64]struct{}

	// Ignore holds image IDs excluded from scoring, e.g. near-duplicates.
	// May be nil.
	Ignore map[int64]struct{}
}

// ExcludeSet returns the scoring exclude set: the query's own seed image
// unioned with its ignore set. A fresh map is built on every call so that
// callers can never leak one query's exclusions into another.
func (q *Query) ExcludeSet() map[int64]struct{} {
	exclude := make(map[int64]struct{}, len(q.Ignore)+1)
	exclude[q.ImgID] = struct{}{}
	for id := range q.Ignore {
		exclude[id] = struct{}{}
	}
	return exclude
}

// IsRelevant reports whether id is judged relevant for the query.
func (q *Query) IsRelevant(id int64) bool {
	_, ok := q.Relevant[id]
	return ok
}
