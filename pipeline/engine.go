package pipeline

import (
	"labflux.com/lfx/diagnostics"
	"labflux.com/lfx/extraction"
	"labflux.com/lfx/logger"
	"labflux.com/lfx/merge"
	"labflux.com/lfx/patterns"
	"labflux.com/lfx/records"
	"labflux.com/lfx/sections"
	"labflux.com/lfx/types"
	"labflux.com/lfx/utils"
	"github.com/rs/zerolog"
	"sync"
)

// Engine turns report text into exam records. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	lib      *patterns.Library
	exporter diagnostics.Exporter
	log      zerolog.Logger
}

func NewEngine(lib *patterns.Library, exporter diagnostics.Exporter) *Engine {
	if lib == nil {
		lib = patterns.Default()
	}
	if exporter == nil {
		exporter = diagnostics.Nop{}
	}
	return &Engine{
		lib:      lib,
		exporter: exporter,
		log:      logger.NewLogger("Engine"),
	}
}

var defaultEngine = NewEngine(nil, nil)

// Extract runs the default engine over one document.
func Extract(text string, documentIndex int) []types.ExamRecord {
	return defaultEngine.Extract(text, documentIndex)
}

// ExtractAndMerge runs the default engine over a batch of documents.
func ExtractAndMerge(texts []string) types.ClassifiedRecordSet {
	return defaultEngine.ExtractAndMerge(texts)
}

func (engine *Engine) Extract(text string, documentIndex int) []types.ExamRecord {
	return engine.extract("", text, documentIndex)
}

func (engine *Engine) ExtractAndMerge(texts []string) types.ClassifiedRecordSet {
	return engine.extractAndMerge("", texts)
}

// extract never fails: a document that cannot be read yields no records.
func (engine *Engine) extract(tid string, text string, documentIndex int) []types.ExamRecord {
	docLog := engine.log.With().Str("tid", tid).Int("document_index", documentIndex).Logger()

	found, sects, err := engine.safeExtract(text)
	if err != nil {
		docLog.Error().Err(err).Msg("Document extraction failed, returning no records")
		found = nil
	}
	docLog.Debug().
		Int("sections", len(sects)).
		Int("records", len(found)).
		Msg("Extracted document")

	diagnostics.Export(engine.exporter, diagnostics.Snapshot{
		Tid:           tid,
		DocumentIndex: documentIndex,
		Text:          text,
		Sections:      sects,
		Records:       found,
	})
	if found == nil {
		found = []types.ExamRecord{}
	}
	return found
}

func (engine *Engine) safeExtract(text string) (found []types.ExamRecord, sects []types.Section, err error) {
	defer utils.RecoverWithError(&err)

	normalized := sections.Normalize(text)
	sects = sections.Split(normalized)
	documentFields := extraction.Document(normalized, engine.lib)
	for _, section := range sects {
		sectionFields := extraction.Section(section, normalized, engine.lib)
		found = append(found, records.Assemble(section, documentFields, sectionFields))
	}
	return found, sects, nil
}

// extractAndMerge fans out one goroutine per document and merges after all of
// them are done. Records keep the input document order before classification.
func (engine *Engine) extractAndMerge(tid string, texts []string) types.ClassifiedRecordSet {
	results := make([][]types.ExamRecord, len(texts))
	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			results[i] = engine.extract(tid, text, i+1)
		}(i, text)
	}
	wg.Wait()

	var all []types.ExamRecord
	for _, found := range results {
		all = append(all, found...)
	}
	return merge.Classify(all)
}
