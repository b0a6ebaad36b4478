package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/rules"
)

func newEmburseAdapter(t *testing.T) Adapter {
	return mustNew(t, Config{
		Kind: KindEmburse,
		Settings: settings(t, `
receivable_account: Assets:Receivable:Initech
company_name: Initech
`),
		Rules: []rules.Rule{{Account: "Expenses:Meals", Meta: map[string]string{MetaEmburseExpenseType: "^Meals$"}}},
	})
}

func checkEmburse(t *testing.T, txs []*models.Transaction, errs []error) {
	t.Helper()
	require.Empty(t, errs)
	require.Len(t, txs, 2)
	assertBalanced(t, txs)

	offsite := txs[0]
	assert.Equal(t, "R100", offsite.DocumentID())
	assert.Equal(t, models.NewDate(2024, 1, 20), offsite.Date())
	assert.Equal(t, "Expense report: Offsite", offsite.Narration())
	assert.Equal(t, "Initech", offsite.Payee())
	assertPosting(t, offsite, 0, "Expenses:Meals", "-30")
	assertPosting(t, offsite, 1, "Assets:Receivable:Initech", "30")
	assertPosting(t, offsite, 2, models.UnclassifiedAccount, "-15.50")
	assertPosting(t, offsite, 3, "Assets:Receivable:Initech", "15.50")
	purpose, _ := offsite.Posting(2).Meta(MetaEmburseBusinessPurpose)
	assert.Equal(t, "Airport", purpose)

	assert.Equal(t, "R200", txs[1].DocumentID())
	assert.Equal(t, 2, txs[1].PostingCount())
}

func TestEmburseCSV(t *testing.T) {
	content := []byte("Report Name,Transaction Date,Expense Type,Vendor,Amount,Currency,Approval Date,Business Purpose,Report ID\n" +
		"Offsite,01/10/24,Meals,Cafe,30.00,USD,01/20/24,Team lunch,R100\n" +
		"Offsite,01/11/24,Taxi,Cab,15.50,USD,01/20/24,Airport,R100\n" +
		"Conf,02/01/24,Hotel,Inn,200.00,USD,02/10/24,Conference,R200\n" +
		"Total,,,,245.50,,,,\n")
	txs, errs := run(t, newEmburseAdapter(t), content, "expenses.csv")
	checkEmburse(t, txs, errs)
}

func TestEmburseXLSX(t *testing.T) {
	data := workbook(t, [][]any{
		{"Chrome River export"},
		{},
		{"Report Name", "Transaction Date", "Expense Type", "Vendor", "Amount", "Currency", "Approval Date", "Business Purpose", "Report ID"},
		{"Offsite", "01/10/24", "Meals", "Cafe", "30.00", "USD", "01/20/24", "Team lunch", "R100"},
		{"Conf", "02/01/24", "Hotel", "Inn", "200.00", "USD", "02/10/24", "Conference", "R200"},
		{"Offsite", "01/11/24", "Taxi", "Cab", "15.50", "USD", "01/20/24", "Airport", "R100"},
	})
	txs, errs := run(t, newEmburseAdapter(t), data, "expenses.xlsx")
	checkEmburse(t, txs, errs)
}

func TestEmburseUnpaddedDates(t *testing.T) {
	content := []byte("Report Name,Transaction Date,Expense Type,Vendor,Amount,Currency,Approval Date,Business Purpose,Report ID\n" +
		"Visit,1/3/24,Meals,Diner,12.00,USD,1/9/24,Client dinner,R300\n" +
		"Trip,3/2/2024,Taxi,Cab,8.00,USD,3/7/2024,Station,R301\n")
	txs, errs := run(t, newEmburseAdapter(t), content, "expenses.csv")
	require.Empty(t, errs)
	require.Len(t, txs, 2)
	assertBalanced(t, txs)

	assert.Equal(t, "R300", txs[0].DocumentID())
	assert.Equal(t, models.NewDate(2024, 1, 9), txs[0].Date())
	assertPosting(t, txs[0], 0, "Expenses:Meals", "-12")
	assert.Equal(t, models.NewDate(2024, 3, 7), txs[1].Date())
}
