package types

import (
	"labflux.com/lfx/logger"
	"errors"
	"gopkg.in/yaml.v3"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

const (
	ScopeSection             = "section"
	ScopeSectionThenDocument = "section_then_document"
	ScopeDocument            = "document"

	CoercionIdentity = "identity"
	CoercionNumeric  = "numeric"
	CoercionPercent  = "percent"
	CoercionDate     = "date"
	CoercionTime     = "time"
	CoercionSex      = "sex"
	CoercionRUT      = "rut"
)

// DialectRule is the on-disk form of a field rule. Dialect files let a new report
// revision be supported by adding rules instead of code.
type DialectRule struct {
	Field    string   `yaml:"field" json:"field"`
	Families []Family `yaml:"families" json:"families"`
	Scope    string   `yaml:"scope" json:"scope"`
	Pattern  string   `yaml:"pattern" json:"pattern"`
	Coercion string   `yaml:"coercion" json:"coercion"`
}

type Dialect struct {
	Name     string        `json:"name"`
	FilePath string        `json:"file_path"`
	Rules    []DialectRule `yaml:"rules" json:"rules"`
}

func (rule DialectRule) Validate() error {
	if rule.Field == "" {
		return errors.New("rule without field")
	}
	if rule.Pattern == "" {
		return errors.New("rule without pattern")
	}
	switch rule.Scope {
	case "", ScopeSection, ScopeSectionThenDocument, ScopeDocument:
	default:
		return errors.New("wrong scope " + rule.Scope)
	}
	return nil
}

func LoadDialects(dirPath string) ([]Dialect, error) {
	lfxLogger := logger.NewLogger("LoadDialects")

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	dialectChan := make(chan Dialect, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.DirEntry) {
			defer wg.Done()
			dialect := Dialect{
				Name:     strings.TrimSuffix(file.Name(), ".yaml"),
				FilePath: path.Join(dirPath, file.Name()),
			}
			buf, err := os.ReadFile(dialect.FilePath)
			if err != nil {
				lfxLogger.Err(err).Str("file", dialect.FilePath).Msg("Failed to read dialect")
				return
			}
			if err := yaml.Unmarshal(buf, &dialect); err != nil {
				lfxLogger.Err(err).Str("file", dialect.FilePath).Msg("Failed to parse dialect")
				return
			}
			for _, rule := range dialect.Rules {
				if err := rule.Validate(); err != nil {
					lfxLogger.Err(err).
						Str("file", dialect.FilePath).
						Str("field", rule.Field).
						Msg("Skipping dialect with invalid rule")
					return
				}
			}
			dialectChan <- dialect
		}(f)
	}

	go func() {
		wg.Wait()
		close(dialectChan)
	}()

	dialects := make([]Dialect, 0, len(files))
	for dialect := range dialectChan {
		dialects = append(dialects, dialect)
	}
	// rule order must not depend on goroutine scheduling
	sort.Slice(dialects, func(i, j int) bool {
		return dialects[i].Name < dialects[j].Name
	})
	return dialects, nil
}
