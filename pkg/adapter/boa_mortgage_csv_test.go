package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yurifrl/ledgeru/pkg/models"
)

func newBoAAdapter(t *testing.T) Adapter {
	return mustNew(t, Config{
		Kind: KindBoAMortgage,
		Settings: settings(t, `
payment_account: Assets:Checking
loan_account: Liabilities:Mortgage
interest_account: Expenses:Mortgage:Interest
escrow_account: Assets:Escrow
`),
	})
}

func TestBoAMortgage(t *testing.T) {
	content := []byte("Date,Description,Type,Payment Amount,Balance,Principal,Interest,Escrow,Fees\n" +
		"01/02/24,Regular Payment,Payment,\"$2,500.00\",\"$300,000.00\",$800.00,\"$1,200.00\",$500.00,--\n" +
		"02/01/24,Escrow Disbursement,Disbursement,--,--,--,--,--,--\n" +
		"02/13/24,Late Fee,Fee,$35.00,,,,,$35.00\n")

	txs, errs := run(t, newBoAAdapter(t), content, "mortgage.csv")
	require.Empty(t, errs)
	require.Len(t, txs, 2, "zero row dropped")
	assertBalanced(t, txs)

	payment := txs[0]
	assert.Equal(t, models.NewDate(2024, 1, 2), payment.Date())
	assert.Equal(t, "2024-01-02|Regular Payment|Payment", payment.DocumentID())
	assertPosting(t, payment, 0, "Assets:Checking", "-2500")
	assertPosting(t, payment, 1, "Liabilities:Mortgage", "800")
	assertPosting(t, payment, 2, "Expenses:Mortgage:Interest", "1200")
	assertPosting(t, payment, 3, "Assets:Escrow", "500")
	assert.Equal(t, 4, payment.PostingCount(), "zero fees omitted")

	fee := txs[1]
	assertPosting(t, fee, 0, "Assets:Checking", "-35")
	assertPosting(t, fee, 1, models.UnclassifiedAccount, "35")
}

func TestBoAMortgageUnpaddedDates(t *testing.T) {
	content := []byte("Date,Description,Type,Payment Amount,Principal,Interest\n" +
		"1/5/24,PAYMENT,Payment,$900.00,$400.00,$500.00\n" +
		"11/3/2024,PAYMENT,Payment,$900.00,$410.00,$490.00\n")

	txs, errs := run(t, newBoAAdapter(t), content, "mortgage.csv")
	require.Empty(t, errs)
	require.Len(t, txs, 2)
	assertBalanced(t, txs)

	assert.Equal(t, models.NewDate(2024, 1, 5), txs[0].Date())
	assert.Equal(t, "2024-01-05|PAYMENT|Payment", txs[0].DocumentID())
	assertPosting(t, txs[0], 1, "Liabilities:Mortgage", "400")
	assert.Equal(t, models.NewDate(2024, 11, 3), txs[1].Date())
}
