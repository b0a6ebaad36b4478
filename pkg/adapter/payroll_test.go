package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yurifrl/ledgeru/pkg/models"
)

const adpStatement = `{"payStatement": {"payDate": "2024-01-15",
 "earnings": [
  {"earningCodeName": "Regular ", "earningAmount": {"amountValue": 5000.00, "currencyCode": "USD"}},
  {"earningCodeName": "Bonus", "earningAmount": {"amountValue": 500, "currencyCode": "USD"}},
  {"earningCodeName": "Info Only"}
 ],
 "deductions": [
  {"deductionCategoryCodeName": "Taxes", "CodeName": "Federal Income Tax", "deductionAmount": {"amountValue": -1200.00, "currencyCode": "USD"}},
  {"deductionCategoryCodeName": "Banking", "deductionCode": {"shortName": "Checking 1"}, "deductionAmount": {"amountValue": -4300.00, "currencyCode": "USD"}}
 ],
 "memos": [
  {"nameCode": {"codeValue": "erhsa", "shortName": "ER HSA"}, "memoAmount": {"amountValue": 50, "currencyCode": "USD"}},
  {"nameCode": {"codeValue": "ignored", "shortName": "X"}, "memoAmount": {"amountValue": 10, "currencyCode": "USD"}}
 ]}}`

func TestADPPayroll(t *testing.T) {
	a := mustNew(t, Config{
		Kind:     KindADP,
		Settings: settings(t, "company_name: Hooli"),
		Accounts: map[string][]string{
			"Earning: Regular":          {"Income:Hooli:Salary"},
			"Taxes: Federal Income Tax": {"Expenses:Taxes:FY{year}:Federal"},
			"Banking: Checking 1":       {"Assets:Checking"},
			"erhsa":                     {"Income:Hooli:HSA", "Assets:HSA"},
		},
	})

	txs, errs := run(t, a, []byte(adpStatement), "/statements/paystub-2024-01-15.json")
	require.Empty(t, errs)
	require.Len(t, txs, 1)
	assertBalanced(t, txs)

	tx := txs[0]
	assert.Equal(t, "2024-01-15/paystub-2024-01-15", tx.DocumentID())
	assert.Equal(t, "Hooli", tx.Payee())
	require.Equal(t, 6, tx.PostingCount())
	assertPosting(t, tx, 0, "Income:Hooli:Salary", "-5000")
	assertPosting(t, tx, 1, models.UnclassifiedAccount, "-500")
	assertPosting(t, tx, 2, "Expenses:Taxes:FY2024:Federal", "1200")
	assertPosting(t, tx, 3, "Assets:Checking", "4300")
	assertPosting(t, tx, 4, "Income:Hooli:HSA", "-50")
	assertPosting(t, tx, 5, "Assets:HSA", "50")
	description, _ := tx.Posting(1).Meta(MetaPayrollDescription)
	assert.Equal(t, "Earning: Bonus", description)
}

func TestADPEmptyStatement(t *testing.T) {
	a := mustNew(t, Config{Kind: KindADP})
	txs, errs := run(t, a, []byte(`{"payStatement": {"payDate": "2024-01-31", "earnings": []}}`), "empty.json")
	assert.Empty(t, txs, "statement dropped")
	assert.Empty(t, errs)
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestWorkdayPayroll(t *testing.T) {
	a := mustNew(t, Config{
		Kind: KindWorkday,
		Settings: settings(t, `
company_name: Initech
sections: [Earnings, Taxes, Net Pay]
`),
		Accounts: map[string][]string{
			"Earnings: Salary":           {"Income:Initech:Salary"},
			"Taxes: Federal Withholding": {"Expenses:Taxes:{year}:Federal"},
			"Net Pay: Checking":          {"Assets:Checking"},
		},
	})

	data := workbook(t, [][]any{
		{"Payslip Information"},
		{"Name", "Check Date"},
		{"Jane", "01/31/2024"},
		{"Earnings"},
		{"Description", "Amount"},
		{"Salary", "4000.00"},
		{"Taxes"},
		{"Description", "Amount"},
		{"Federal Withholding", "800.00"},
		{"Net Pay"},
		{"Description", "Amount"},
		{"Checking", "3200.00"},
	})

	txs, errs := run(t, a, data, "payslip-2024-01.xlsx")
	require.Empty(t, errs)
	require.Len(t, txs, 1)
	assertBalanced(t, txs)

	tx := txs[0]
	assert.Equal(t, models.NewDate(2024, 1, 31), tx.Date())
	assert.Equal(t, "2024-01-31/payslip-2024-01", tx.DocumentID())
	assertPosting(t, tx, 0, "Income:Initech:Salary", "-4000")
	assertPosting(t, tx, 1, "Expenses:Taxes:2024:Federal", "800")
	assertPosting(t, tx, 2, "Assets:Checking", "3200")
}

func TestWorkdayMissingCheckDate(t *testing.T) {
	a := mustNew(t, Config{Kind: KindWorkday, Settings: settings(t, "sections: [Earnings]")})
	data := workbook(t, [][]any{
		{"Earnings"},
		{"Description", "Amount"},
		{"Salary", "4000.00"},
	})
	_, err := a.ReadRaw(data, "payslip.xlsx")
	require.Error(t, err)
	assert.Equal(t, models.KindDecode, models.Kind(err))
}

func TestSignByClass(t *testing.T) {
	cases := []struct {
		account string
		amount  string
		want    string
	}{
		{"Income:Salary", "100", "-100"},
		{"Liabilities:Loan", "-5", "-5"},
		{"Expenses:Tax", "-20", "20"},
		{"Assets:Checking", "30", "30"},
		{models.UnclassifiedAccount, "-7", "-7"},
	}
	for _, c := range cases {
		got := signByClass(c.account, dec(c.amount))
		assert.True(t, got.Equal(dec(c.want)), "signByClass(%s, %s) = %s, want %s", c.account, c.amount, got, c.want)
	}
}
