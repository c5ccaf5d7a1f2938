package pipeline

import (
	"labflux.com/lfx/diagnostics"
	"labflux.com/lfx/logger"
	"labflux.com/lfx/merge"
	"labflux.com/lfx/patterns"
	"labflux.com/lfx/ranges"
	"encoding/json"
)

// Pipeline answers a request with its JSON response on the returned channel.
type Pipeline func(request Request) <-chan string

type Params struct {
	Library  *patterns.Library
	Exporter diagnostics.Exporter
	Ranges   ranges.Table
}

func New(params Params) Pipeline {
	lfxLogger := logger.NewLogger("Extraction pipeline")
	lfxLogger.Info().
		Int("rules", libraryLen(params.Library)).
		Msg("Starting extraction pipeline")

	engine := NewEngine(params.Library, params.Exporter)
	table := params.Ranges
	if table == nil {
		table = ranges.Default()
	}

	return func(request Request) <-chan string {
		responseChan := make(chan string, 1)
		pplnLog := lfxLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Int("documents", len(request.Documents)).Msg("Started extraction pipeline")
		errLogger := pplnLog.With().Caller().Logger()

		go func() {
			defer close(responseChan)
			set := engine.extractAndMerge(request.Tid, request.Documents)

			response := Response{
				Tid:       request.Tid,
				Documents: len(request.Documents),
			}
			if request.Keyed {
				var opts []merge.Option
				if request.Emphasis {
					opts = append(opts, merge.WithEmphasis(table))
				}
				response.Keyed = merge.Flatten(merge.Keyed(set, opts...))
			} else {
				response.Records = &set
			}

			buf, err := json.Marshal(response)
			if err != nil {
				errLogger.Err(err).Msg("Failed to marshal response")
			}
			pplnLog.Info().Int("records", set.Len()).Msg("Finished extraction pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}
}

func libraryLen(lib *patterns.Library) int {
	if lib == nil {
		return patterns.Default().Len()
	}
	return lib.Len()
}
