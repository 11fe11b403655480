// Package csvparser imports bank export CSV files. Each row gets a
// deterministic external id derived from its content, so importing the same
// export twice is a no-op at the store level.
package csvparser

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mlaurent/scanledger/internal/dateutils"
	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
	"mlaurent/scanledger/internal/parsererror"
)

// csvRow is one line of a bank export. Struct tags drive gocsv unmarshaling.
type csvRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
	IBAN        string `csv:"iban"`
}

// Parser reads bank export CSV files.
type Parser struct {
	log logging.Logger
}

// NewParser creates a CSV parser.
func NewParser(log logging.Logger) *Parser {
	if log == nil {
		log = logging.GetLogger()
	}
	return &Parser{log: log}
}

// ParseFile reads a CSV export and returns its transactions. Rows that
// cannot be parsed are skipped with a warning so one bad line never sinks
// an import.
func (p *Parser) ParseFile(path string) ([]models.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &parsererror.NotFoundError{Path: path}
		}
		return nil, err
	}
	defer f.Close()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, &parsererror.DecodeError{Path: path, Kind: "csv", Err: err}
	}

	transactions := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		tx, err := p.convertRow(row)
		if err != nil {
			p.log.WithError(err).Warn("skipping unparseable CSV row",
				logging.Field{Key: logging.FieldFile, Value: path},
				logging.Field{Key: "row", Value: i + 2})
			continue
		}
		transactions = append(transactions, tx)
	}

	p.log.Info("parsed CSV export",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(transactions)})
	return transactions, nil
}

func (p *Parser) convertRow(row csvRow) (models.Transaction, error) {
	date, err := dateutils.ParseDateString(row.Date)
	if err != nil {
		return models.Transaction{}, &parsererror.ParseError{Field: "date", Value: row.Date, Err: err}
	}

	raw := strings.NewReplacer(",", ".", " ", "", " ", "").Replace(row.Amount)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return models.Transaction{}, &parsererror.ParseError{Field: "amount", Value: row.Amount, Err: err}
	}

	txType := models.TypeExpense
	if amount.IsPositive() {
		txType = models.TypeIncome
	}

	return models.Transaction{
		Type:        txType,
		Date:        date,
		Category:    row.Category,
		Amount:      amount.Abs(),
		Description: strings.TrimSpace(row.Description),
		Source:      models.SourceCSV,
		ExternalID:  externalID(row),
		AccountIBAN: strings.TrimSpace(row.IBAN),
	}, nil
}

// externalID derives a stable id from the row content. Bank exports carry
// no native transaction id, so identity is the row itself.
func externalID(row csvRow) string {
	key := fmt.Sprintf("csv|%s|%s|%s|%s", row.Date, row.Amount, row.Description, row.IBAN)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
