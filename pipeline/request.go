package pipeline

import "labflux.com/lfx/types"

type Request struct {
	Tid       string   `json:"tid"`
	Documents []string `json:"documents"`
	Keyed     bool     `json:"keyed"`
	Emphasis  bool     `json:"emphasis"`
}

// Response carries either the classified records or, for keyed requests, the
// flattened template namespace.
type Response struct {
	Tid       string                     `json:"tid"`
	Documents int                        `json:"documents"`
	Records   *types.ClassifiedRecordSet `json:"records,omitempty"`
	Keyed     map[string]string          `json:"keyed,omitempty"`
}
