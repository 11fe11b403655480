package store

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"mlaurent/scanledger/internal/logging"
)

// patternFile is the optional YAML override document. A non-empty list for a
// field replaces the built-in cascade for that field; absent fields keep
// their defaults.
type patternFile struct {
	Amount     []string `yaml:"amount"`
	Date       []string `yaml:"date"`
	PayslipNet []string `yaml:"payslip_net"`
}

// Patterns is an immutable compiled pattern set. Each list is a cascade
// tried in order of priority.
type Patterns struct {
	Amount     []*regexp.Regexp
	Date       []*regexp.Regexp
	PayslipNet []*regexp.Regexp
}

// Receipt amount cascades run against uppercased OCR text. The OCR engine
// confuses O and 0, so the digit class tolerates both.
var defaultAmountPatterns = []string{
	`TOTAL\s+TTC\s*:?\s*([\dO]+[.,][\dO]{2})`,
	`TOTAL\s*:?\s*([\dO]+[.,][\dO]{2})`,
	`MONTANT\s*:?\s*([\dO]+[.,][\dO]{2})`,
	`(?:CB|CARTE)\s+BANCAIRE\s*:?\s*([\dO]+[.,][\dO]{2})`,
	`A\s+PAYER\s*:?\s*([\dO]+[.,][\dO]{2})`,
	`([\dO]+[.,][\dO]{2})\s*(?:EUR|€)`,
}

// Date cascades capture day, month and year separately so mixed separators
// in the same date still reassemble cleanly.
var defaultDatePatterns = []string{
	`(?i)DATE\s*:?\s*(\d{2})[/\-. ](\d{2})[/\-. ](\d{2,4})`,
	`(?i)LE\s+(\d{2})[/\-. ](\d{2})[/\-. ](\d{2,4})`,
	`(\d{2})[/\-.](\d{2})[/\-.](\d{2,4})`,
}

// Payslip cascades target the net amount lines of French pay statements and
// transfer notices. Thousands groups may be space-separated.
var defaultPayslipNetPatterns = []string{
	`NET\s+(?:À\s+)?PAYER\s*:?\s*([\d\s]+[.,]\d{2})`,
	`MONTANT\s+NET\s*:?\s*([\d\s]+[.,]\d{2})`,
	`NET\s+PAYÉ\s*:?\s*([\d\s]+[.,]\d{2})`,
	`VIREMENT\s*:?\s*([\d\s]+[.,]\d{2})`,
	`TOTAL\s*:?\s*([\d\s]+[.,]\d{2})\s*€`,
	`MONTANT\s+TOTAL\s*:?\s*([\d\s]+[.,]\d{2})`,
}

// PatternStore serves compiled extraction pattern sets, with optional YAML
// overrides layered on the built-in defaults.
type PatternStore struct {
	mu       sync.RWMutex
	path     string
	log      logging.Logger
	compiled *Patterns
}

// NewPatternStore creates a store. An empty path means built-in defaults
// only.
func NewPatternStore(path string, log logging.Logger) *PatternStore {
	if log == nil {
		log = logging.GetLogger()
	}
	return &PatternStore{path: path, log: log}
}

// Load compiles the active pattern set and atomically replaces the snapshot.
// An invalid regex in the override file fails the whole load so a typo never
// silently drops part of a cascade.
func (s *PatternStore) Load() error {
	sets := patternFile{
		Amount:     defaultAmountPatterns,
		Date:       defaultDatePatterns,
		PayslipNet: defaultPayslipNetPatterns,
	}

	if s.path != "" {
		data, err := os.ReadFile(s.path)
		switch {
		case err == nil:
			var override patternFile
			if err := yaml.Unmarshal(data, &override); err != nil {
				return fmt.Errorf("error parsing patterns file %s: %w", s.path, err)
			}
			if len(override.Amount) > 0 {
				sets.Amount = override.Amount
			}
			if len(override.Date) > 0 {
				sets.Date = override.Date
			}
			if len(override.PayslipNet) > 0 {
				sets.PayslipNet = override.PayslipNet
			}
		case os.IsNotExist(err):
			s.log.Debug("patterns file not found, using defaults",
				logging.Field{Key: logging.FieldFile, Value: s.path})
		default:
			return fmt.Errorf("error reading patterns file %s: %w", s.path, err)
		}
	}

	compiled := &Patterns{}
	var err error
	if compiled.Amount, err = compileAll("amount", sets.Amount); err != nil {
		return err
	}
	if compiled.Date, err = compileAll("date", sets.Date); err != nil {
		return err
	}
	if compiled.PayslipNet, err = compileAll("payslip_net", sets.PayslipNet); err != nil {
		return err
	}

	s.mu.Lock()
	s.compiled = compiled
	s.mu.Unlock()
	return nil
}

// Patterns returns the current compiled set, loading defaults on first use.
func (s *PatternStore) Patterns() *Patterns {
	s.mu.RLock()
	snap := s.compiled
	s.mu.RUnlock()
	if snap != nil {
		return snap
	}
	if err := s.Load(); err != nil {
		s.log.WithError(err).Warn("pattern load failed, using built-in defaults")
		fallback := &PatternStore{}
		_ = fallback.Load()
		s.mu.Lock()
		s.compiled = fallback.compiled
		s.mu.Unlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compiled
}

func compileAll(field string, exprs []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", field, expr, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
