// Package ofxparser imports OFX 2.x (XML flavor) bank statements using
// XPath extraction. The FITID each statement line carries becomes the
// transaction's external id, which makes re-imports idempotent.
package ofxparser

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/xmlpath.v2"

	"mlaurent/scanledger/internal/dateutils"
	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
	"mlaurent/scanledger/internal/parsererror"
)

var (
	stmtPath    = xmlpath.MustCompile("//BANKTRANLIST/STMTTRN")
	trnTypePath = xmlpath.MustCompile("TRNTYPE")
	datePath    = xmlpath.MustCompile("DTPOSTED")
	amountPath  = xmlpath.MustCompile("TRNAMT")
	fitIDPath   = xmlpath.MustCompile("FITID")
	namePath    = xmlpath.MustCompile("NAME")
	memoPath    = xmlpath.MustCompile("MEMO")
	ibanPath    = xmlpath.MustCompile("//BANKACCTFROM/ACCTID")
)

// Parser reads OFX statements.
type Parser struct {
	log logging.Logger
}

// NewParser creates an OFX parser.
func NewParser(log logging.Logger) *Parser {
	if log == nil {
		log = logging.GetLogger()
	}
	return &Parser{log: log}
}

// ParseFile parses an OFX file and returns its transactions.
func (p *Parser) ParseFile(path string) ([]models.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &parsererror.NotFoundError{Path: path}
		}
		return nil, err
	}
	defer f.Close()

	root, err := xmlpath.Parse(f)
	if err != nil {
		return nil, &parsererror.DecodeError{Path: path, Kind: "ofx", Err: err}
	}

	iban := ""
	if v, ok := ibanPath.String(root); ok {
		iban = strings.TrimSpace(v)
	}

	var transactions []models.Transaction
	iter := stmtPath.Iter(root)
	for iter.Next() {
		node := iter.Node()
		tx, err := p.convertNode(node, iban)
		if err != nil {
			p.log.WithError(err).Warn("skipping unparseable OFX entry",
				logging.Field{Key: logging.FieldFile, Value: path})
			continue
		}
		transactions = append(transactions, tx)
	}

	if len(transactions) == 0 {
		p.log.Warn("no statement lines found in OFX file",
			logging.Field{Key: logging.FieldFile, Value: path})
	} else {
		p.log.Info("parsed OFX statement",
			logging.Field{Key: logging.FieldFile, Value: path},
			logging.Field{Key: logging.FieldCount, Value: len(transactions)})
	}
	return transactions, nil
}

func (p *Parser) convertNode(node *xmlpath.Node, iban string) (models.Transaction, error) {
	rawAmount, ok := amountPath.String(node)
	if !ok {
		return models.Transaction{}, &parsererror.ParseError{
			Field: "amount", Value: "", Err: fmt.Errorf("missing TRNAMT")}
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rawAmount))
	if err != nil {
		return models.Transaction{}, &parsererror.ParseError{Field: "amount", Value: rawAmount, Err: err}
	}

	rawDate, ok := datePath.String(node)
	if !ok {
		return models.Transaction{}, &parsererror.ParseError{
			Field: "date", Value: "", Err: fmt.Errorf("missing DTPOSTED")}
	}
	date, err := parseOFXDate(rawDate)
	if err != nil {
		return models.Transaction{}, &parsererror.ParseError{Field: "date", Value: rawDate, Err: err}
	}

	fitID, _ := fitIDPath.String(node)
	fitID = strings.TrimSpace(fitID)

	description, _ := namePath.String(node)
	if memo, ok := memoPath.String(node); ok && strings.TrimSpace(memo) != "" {
		if description != "" {
			description += " - "
		}
		description += memo
	}

	return models.Transaction{
		Type:        ofxType(node, amount),
		Date:        date,
		Amount:      amount.Abs(),
		Description: strings.TrimSpace(description),
		Source:      models.SourceOFX,
		ExternalID:  fitID,
		AccountIBAN: iban,
	}, nil
}

// parseOFXDate handles the OFX timestamp format: YYYYMMDD optionally
// followed by time and timezone noise. Only the date part matters here.
func parseOFXDate(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)
	if len(cleaned) < 8 {
		return time.Time{}, fmt.Errorf("date too short: %q", raw)
	}
	t, err := time.Parse("20060102", cleaned[:8])
	if err != nil {
		return time.Time{}, err
	}
	return dateutils.Truncate(t), nil
}

// ofxType maps the statement TRNTYPE to a transaction type, falling back to
// the amount sign when the type is absent or unrecognized.
func ofxType(node *xmlpath.Node, amount decimal.Decimal) models.TransactionType {
	if raw, ok := trnTypePath.String(node); ok {
		switch strings.ToUpper(strings.TrimSpace(raw)) {
		case "DEBIT", "PAYMENT", "POS", "ATM", "FEE", "CHECK":
			return models.TypeExpense
		case "CREDIT", "DEP", "DIRECTDEP", "INT", "DIV":
			return models.TypeIncome
		case "XFER":
			if amount.IsNegative() {
				return models.TypeTransferOut
			}
			return models.TypeTransferIn
		}
	}
	if amount.IsNegative() {
		return models.TypeExpense
	}
	return models.TypeIncome
}
