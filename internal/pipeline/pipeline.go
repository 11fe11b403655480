// Package pipeline wires extraction, field parsing, categorization and
// persistence into the document processing flow, and runs batches of
// documents either sequentially or across a worker pool.
package pipeline

import (
	"context"
	"time"

	"mlaurent/scanledger/internal/categorizer"
	"mlaurent/scanledger/internal/dateutils"
	"mlaurent/scanledger/internal/extractor"
	"mlaurent/scanledger/internal/fieldparse"
	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
	"mlaurent/scanledger/internal/store"
	"mlaurent/scanledger/internal/txstore"
)

// Pipeline processes one document at a time. Create one per worker; the
// extractor engines it holds are not required to be goroutine-safe.
type Pipeline struct {
	extractor   extractor.TextExtractor
	patterns    *store.PatternStore
	categorizer *categorizer.Categorizer
	store       *txstore.Store
	log         logging.Logger
	now         func() time.Time
}

// New creates a pipeline. A nil store skips persistence, leaving the parsed
// transaction to the caller. A nil categorizer skips categorization.
func New(ext extractor.TextExtractor, patterns *store.PatternStore, cat *categorizer.Categorizer, st *txstore.Store, log logging.Logger) *Pipeline {
	if log == nil {
		log = logging.GetLogger()
	}
	return &Pipeline{
		extractor:   ext,
		patterns:    patterns,
		categorizer: cat,
		store:       st,
		log:         log,
		now:         time.Now,
	}
}

// ProcessDocument runs the full flow for one file: extract text, parse the
// fields the document kind carries, categorize, persist. Scanned images are
// treated as expense receipts, PDFs as income statements.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string) (*models.Transaction, error) {
	start := p.now()

	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	var tx *models.Transaction
	if extractor.IsPDF(path) {
		tx = p.parseIncome(text, path)
	} else {
		tx = p.parseReceipt(text, path)
	}

	if p.categorizer != nil {
		p.categorizer.Categorize(ctx, tx, text)
	}

	if p.store != nil {
		if _, _, err := p.store.AddTransaction(ctx, tx); err != nil {
			return nil, err
		}
	}

	p.log.Info("document processed",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldAmount, Value: tx.Amount.StringFixed(2)},
		logging.Field{Key: logging.FieldCategory, Value: tx.Category},
		logging.Field{Key: logging.FieldDuration, Value: p.now().Sub(start)})
	return tx, nil
}

// parseReceipt extracts the total and purchase date from OCR text. A
// missing amount stays zero so the user can correct the record; a missing
// date defaults to today.
func (p *Pipeline) parseReceipt(text, path string) *models.Transaction {
	pats := p.patterns.Patterns()

	amount, found := fieldparse.ParseAmount(text, pats.Amount)
	if !found {
		p.log.Warn("no amount found in receipt, keeping zero for manual correction",
			logging.Field{Key: logging.FieldFile, Value: path})
	}

	date, ok := fieldparse.ParseDate(text, pats.Date)
	if !ok {
		date = dateutils.Truncate(p.now())
		p.log.Debug("no date found in receipt, using today")
	}

	return &models.Transaction{
		Type:   models.TypeExpense,
		Date:   date,
		Amount: amount,
		Source: models.SourceOCR,
	}
}

// parseIncome extracts the net amount and payment date from a PDF income
// statement.
func (p *Pipeline) parseIncome(text, path string) *models.Transaction {
	result := fieldparse.ParsePayslip(text, p.patterns.Patterns(), p.now())
	if !result.AmountFound {
		p.log.Warn("no amount found in statement, keeping zero for manual correction",
			logging.Field{Key: logging.FieldFile, Value: path})
	}

	return &models.Transaction{
		Type:        models.TypeIncome,
		Date:        result.Date,
		Amount:      result.Amount,
		Description: result.Description,
		Source:      models.SourcePDF,
	}
}
