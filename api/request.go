package api

import (
	"labflux.com/lfx/pipeline"
	"labflux.com/lfx/utils"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

type Request struct {
	Pipeline pipeline.Pipeline
}

type extractBody struct {
	Documents []string `json:"documents"`
}

const (
	requestIDHeader = "X-Request-Id"
	maxBodyBytes    = 16 << 20
)

func NewHandler(ppln pipeline.Pipeline) http.Handler {
	req := &Request{Pipeline: ppln}
	mux := http.NewServeMux()
	mux.HandleFunc("/extract", req.ProcessData)
	mux.HandleFunc("/health", req.Health)
	return mux
}

// ProcessData extracts records from the posted documents. The body is either a
// JSON object with a "documents" list or one plain text document.
func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	logger := makeRequestLogger(r)

	if r.Method != http.MethodPost {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		logger.Err(err).Int("status", status).Msg("Could not read request body")
		http.Error(w, "", status)
		return
	}

	documents, err := parseDocuments(msg)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not parse request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}
	if len(documents) == 0 {
		logger.Err(nil).Int("status", http.StatusBadRequest).Msg("Request has no documents")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	emphasis, err := parseFlag(query.Get("emphasis"))
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Invalid 'emphasis' parameter")
		http.Error(w, "", http.StatusBadRequest)
		return
	}
	request := pipeline.Request{
		Tid:       requestID(r, msg),
		Documents: documents,
		Keyed:     query.Get("format") == "keyed",
		Emphasis:  emphasis,
	}
	logger.Info().
		Str("tid", request.Tid).
		Int("documents", len(documents)).
		Msg("Starting pipeline for request from API")
	resp := <-req.Pipeline(request)
	_, _ = w.Write([]byte(resp))
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}

func (req *Request) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func parseDocuments(msg []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] != '{' {
		return []string{string(msg)}, nil
	}
	var body extractBody
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return nil, err
	}
	documents := make([]string, 0, len(body.Documents))
	for _, doc := range body.Documents {
		if !utils.IsBlank(doc) {
			documents = append(documents, doc)
		}
	}
	return documents, nil
}

// parseFlag reads an optional boolean query parameter; absent means false.
func parseFlag(value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

func requestID(r *http.Request, body []byte) string {
	if id := r.Header.Get(requestIDHeader); id != "" {
		return id
	}
	return "api_" + utils.Fingerprint(string(body))
}
