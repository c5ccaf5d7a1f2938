package diagnostics

import (
	"labflux.com/lfx/logger"
	"labflux.com/lfx/types"
	"labflux.com/lfx/utils"
	"encoding/json"
	"fmt"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DevMode  bool   `envconfig:"LFX_DEV_MODE" default:"false"`
	Dir      string `envconfig:"LFX_DIAGNOSTICS_DIR" default:"assets/parsed_data"`
	S3Prefix string `envconfig:"LFX_DIAGNOSTICS_S3_PREFIX" default:""`
}

// Snapshot is everything the engine saw and produced for one document.
type Snapshot struct {
	Tid           string
	DocumentIndex int
	Text          string
	Sections      []types.Section
	Records       []types.ExamRecord
}

type Exporter interface {
	Export(snapshot Snapshot) error
}

type Nop struct{}

func (Nop) Export(Snapshot) error {
	return nil
}

var diagLogger = logger.NewLogger("Diagnostics")

// FromEnvironment returns the exporter selected by the environment. Outside dev
// mode nothing is exported; with an S3 prefix and an uploader, snapshots go to
// the bucket, otherwise to a local directory.
func FromEnvironment(s3 Uploader) (Exporter, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		diagLogger.Err(err).Msg("Could not read diagnostics config")
		return nil, err
	}
	switch {
	case !config.DevMode:
		return Nop{}, nil
	case config.S3Prefix != "" && s3 != nil:
		diagLogger.Info().Str("prefix", config.S3Prefix).Msg("Exporting diagnostics to S3")
		return &S3Store{Prefix: config.S3Prefix, Client: s3}, nil
	default:
		diagLogger.Info().Str("dir", config.Dir).Msg("Exporting diagnostics to directory")
		return &DirStore{Root: config.Dir}, nil
	}
}

// Export writes the snapshot and logs failures; it never fails the caller.
func Export(exporter Exporter, snapshot Snapshot) {
	if exporter == nil {
		return
	}
	if err := exporter.Export(snapshot); err != nil {
		diagLogger.Warn().
			Err(err).
			Str("tid", snapshot.Tid).
			Int("document_index", snapshot.DocumentIndex).
			Msg("Failed to export diagnostics")
	}
}

type file struct {
	name string
	data []byte
}

// files renders a snapshot into its named artifacts, in write order.
func files(snapshot Snapshot) ([]file, error) {
	sectionList := snapshot.Sections
	if sectionList == nil {
		sectionList = []types.Section{}
	}
	sections, err := json.MarshalIndent(sectionList, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}
	records := snapshot.Records
	if records == nil {
		records = []types.ExamRecord{}
	}
	recordsBuf, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}

	out := []file{
		{fmt.Sprintf("doc_%d_%s.txt", snapshot.DocumentIndex, utils.Fingerprint(snapshot.Text)), []byte(snapshot.Text)},
		{fmt.Sprintf("doc_%d_sections.json", snapshot.DocumentIndex), sections},
		{fmt.Sprintf("doc_%d_records.json", snapshot.DocumentIndex), recordsBuf},
	}
	return out, nil
}
