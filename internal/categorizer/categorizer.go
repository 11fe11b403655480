// Package categorizer assigns a category, subcategory and description to
// extracted transactions. It tries vocabulary keywords first, then the AI
// model, and repairs the model's answer against the allowed vocabulary. It
// never fails a transaction: when everything else loses, the fixed fallback
// applies.
package categorizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
	"mlaurent/scanledger/internal/parsererror"
	"mlaurent/scanledger/internal/store"
)

// Suggestion is a structured categorization answer.
type Suggestion struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Description string `json:"description"`
}

// AIClient produces a suggestion for a prompt. Implementations must be safe
// for concurrent use by batch workers.
type AIClient interface {
	Suggest(ctx context.Context, prompt string) (Suggestion, error)
}

// FallbackDescription is the description applied when no strategy produced
// a usable answer.
const FallbackDescription = "Uncategorized transaction"

// minAIInputLen is the shortest combined description+text worth an API
// call; anything shorter carries no signal the model could use.
const minAIInputLen = 10

// Categorizer orchestrates the categorization strategies.
type Categorizer struct {
	client     AIClient
	categories *store.CategoryStore
	log        logging.Logger
	timeout    time.Duration
	maxRetries int
}

// New creates a Categorizer. A nil client disables the AI strategy, leaving
// keyword matching and the fallback.
func New(client AIClient, categories *store.CategoryStore, timeout time.Duration, maxRetries int, log logging.Logger) *Categorizer {
	if log == nil {
		log = logging.GetLogger()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Categorizer{
		client:     client,
		categories: categories,
		log:        log,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

// Categorize fills in the transaction's category, subcategory and, when
// empty, its description. It never returns an error: failures are logged
// and the fallback category applies.
func (c *Categorizer) Categorize(ctx context.Context, tx *models.Transaction, rawText string) {
	vocab := c.categories.Snapshot()
	input := strings.TrimSpace(tx.Description + " " + rawText)

	if name, ok := vocab.MatchKeyword(input); ok {
		tx.Category = name
		c.log.Debug("categorized by keyword",
			logging.Field{Key: logging.FieldCategory, Value: name})
		return
	}

	if c.client != nil && len(input) >= minAIInputLen {
		if sugg, err := c.suggestWithRetry(ctx, tx, rawText, vocab); err == nil {
			c.apply(tx, c.repair(sugg, vocab))
			return
		} else if ctx.Err() == nil {
			cerr := &parsererror.CategorizationError{Strategy: "ai", Err: err}
			c.log.WithError(cerr).Warn("AI categorization failed, using fallback")
		}
	}

	c.apply(tx, Suggestion{
		Category:    models.CategoryUncategorized,
		Subcategory: "",
		Description: FallbackDescription,
	})
}

func (c *Categorizer) apply(tx *models.Transaction, s Suggestion) {
	tx.Category = s.Category
	tx.Subcategory = s.Subcategory
	if tx.Description == "" {
		tx.Description = s.Description
	}
}

func (c *Categorizer) suggestWithRetry(ctx context.Context, tx *models.Transaction, rawText string, vocab *store.Vocabulary) (Suggestion, error) {
	prompt := buildPrompt(tx, rawText, vocab)

	var result Suggestion
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		s, err := c.client.Suggest(callCtx, prompt)
		if err != nil {
			return err
		}
		result = s
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return Suggestion{}, err
	}
	return result, nil
}

// repair forces the suggestion into the vocabulary. An unknown category
// resets to Uncategorized. A subcategory outside the allowed set is matched
// increasingly loosely (exact, case-insensitive, substring either way) and
// finally replaced with the first allowed entry.
func (c *Categorizer) repair(s Suggestion, vocab *store.Vocabulary) Suggestion {
	canonical, ok := vocab.CanonicalCategory(s.Category)
	if !ok {
		c.log.Debug("model invented a category, resetting",
			logging.Field{Key: logging.FieldCategory, Value: s.Category})
		return Suggestion{
			Category:    models.CategoryUncategorized,
			Subcategory: "",
			Description: s.Description,
		}
	}
	s.Category = canonical

	allowed := vocab.Subcategories(canonical)
	if len(allowed) == 0 {
		s.Subcategory = ""
		return s
	}
	s.Subcategory = repairSubcategory(s.Subcategory, allowed)
	return s
}

func repairSubcategory(got string, allowed []string) string {
	for _, a := range allowed {
		if got == a {
			return a
		}
	}
	for _, a := range allowed {
		if strings.EqualFold(got, a) {
			return a
		}
	}
	lowered := strings.ToLower(got)
	if lowered != "" {
		for _, a := range allowed {
			la := strings.ToLower(a)
			if strings.Contains(la, lowered) || strings.Contains(lowered, la) {
				return a
			}
		}
	}
	return allowed[0]
}

func buildPrompt(tx *models.Transaction, rawText string, vocab *store.Vocabulary) string {
	var b strings.Builder
	b.WriteString("Categorize the following financial transaction.\n\n")
	fmt.Fprintf(&b, "Amount: %s\nDate: %s\nDescription: %s\n",
		tx.Amount.StringFixed(2), tx.Date.Format("2006-01-02"), tx.Description)
	if rawText != "" {
		text := rawText
		if len(text) > 2000 {
			text = text[:2000]
		}
		fmt.Fprintf(&b, "\nDocument text:\n%s\n", text)
	}

	b.WriteString("\nAllowed categories and subcategories:\n")
	for _, name := range vocab.CategoryNames() {
		subs := vocab.Subcategories(name)
		if len(subs) > 0 {
			fmt.Fprintf(&b, "- %s: %s\n", name, strings.Join(subs, ", "))
		} else {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	if vocab.HasCategory("Transport") {
		b.WriteString("\nFuel and gas station purchases always belong to Transport with subcategory Fuel.\n")
	}

	b.WriteString(`
Respond with ONLY a JSON object, no markdown, in this exact shape:
{"category": "<one allowed category>", "subcategory": "<one allowed subcategory or empty>", "description": "<short cleaned-up description>"}`)
	return b.String()
}
