package types

// Span is a half-open byte range [Begin, End) into the normalized document.
type Span struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

type Spans []Span
