package csvparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
	"mlaurent/scanledger/internal/parsererror"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile(t *testing.T) {
	path := writeCSV(t, `date,description,amount,category,iban
15.01.2024,CARREFOUR CITY,-42.50,Groceries,CH9300762011623852957
31.01.2024,Salary January,2500.00,,CH9300762011623852957
`)

	p := NewParser(&logging.MockLogger{})
	txs, err := p.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, models.TypeExpense, txs[0].Type)
	assert.Equal(t, "42.5", txs[0].Amount.String(), "amount stored as magnitude")
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), txs[0].Date)
	assert.Equal(t, "CARREFOUR CITY", txs[0].Description)
	assert.Equal(t, "Groceries", txs[0].Category)
	assert.Equal(t, models.SourceCSV, txs[0].Source)
	assert.NotEmpty(t, txs[0].ExternalID)

	assert.Equal(t, models.TypeIncome, txs[1].Type)
	assert.Equal(t, "2500", txs[1].Amount.String())
}

func TestParseFileSkipsBadRows(t *testing.T) {
	path := writeCSV(t, `date,description,amount,category,iban
not-a-date,broken,10.00,,
15.01.2024,fine,-5.00,,
15.01.2024,also broken,abc,,
`)

	p := NewParser(&logging.MockLogger{})
	txs, err := p.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "fine", txs[0].Description)
}

func TestParseFileEuropeanAmountFormat(t *testing.T) {
	path := writeCSV(t, `date,description,amount,category,iban
15.01.2024,rent,"-1 250,00",,
`)

	p := NewParser(&logging.MockLogger{})
	txs, err := p.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "1250", txs[0].Amount.String())
}

func TestParseFileMissing(t *testing.T) {
	p := NewParser(&logging.MockLogger{})
	_, err := p.ParseFile(filepath.Join(t.TempDir(), "absent.csv"))
	var nfe *parsererror.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestExternalIDDeterministic(t *testing.T) {
	row := csvRow{Date: "15.01.2024", Description: "shop", Amount: "-10.00", IBAN: "CH93"}
	assert.Equal(t, externalID(row), externalID(row))

	other := row
	other.Amount = "-10.01"
	assert.NotEqual(t, externalID(row), externalID(other), "any field change yields a new id")
}
