package types

// Section is a contiguous, possibly reassembled, span of report text belonging
// to one exam family. Spans point back into the source document.
type Section struct {
	Label   Family `json:"label"`
	Content string `json:"content"`
	Spans   Spans  `json:"spans"`
}
