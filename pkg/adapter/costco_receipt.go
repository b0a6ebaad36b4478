package adapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reader"
	"github.com/yurifrl/ledgeru/pkg/rules"
)

// Posting metadata set on Costco receipts.
const (
	MetaCostcoKind              = "costco_kind"
	MetaCostcoItemDescription   = "costco_item_description"
	MetaCostcoItemIdentifier    = "costco_item_identifier"
	MetaCostcoTaxFlag           = "costco_tax_flag"
	MetaCostcoTenderDescription = "costco_tender_description"
)

const (
	costcoReceiptDocument = "WarehouseReceiptDetail"
	costcoTimeLayout      = "2006-01-02T15:04:05"
)

type costcoSettings struct {
	FoodStampAccount string `yaml:"food_stamp_account"`
	FSAAccount       string `yaml:"fsa_account"`
	OtherAccount     string `yaml:"other_account"`
	DiscountAccount  string `yaml:"discount_account"`
	SalesTaxAccount  string `yaml:"sales_tax_account"`
	RewardsAccount   string `yaml:"rewards_account"`
	CashAccount      string `yaml:"cash_account"`
}

// costco reads warehouse receipts downloaded from the Costco order history.
// Every posting starts on the placeholder and is routed by the built-in rules
// built from the settings; card tenders are left to the configured rules.
type costco struct {
	*base
	s costcoSettings
}

func newCostco(b *base, cfg Config) (*costco, error) {
	var s costcoSettings
	if err := decodeSettings(cfg.Settings, &s); err != nil {
		return nil, err
	}

	var builtin []rules.Rule
	add := func(account string, meta map[string]string) {
		if account != "" {
			builtin = append(builtin, rules.Rule{Account: account, Meta: meta})
		}
	}
	add(s.FoodStampAccount, map[string]string{MetaCostcoKind: "^item$", MetaCostcoItemIdentifier: "^E$"})
	add(s.FSAAccount, map[string]string{MetaCostcoKind: "^item$", MetaCostcoItemIdentifier: "^F$"})
	add(s.OtherAccount, map[string]string{MetaCostcoKind: "^item$"})
	add(s.DiscountAccount, map[string]string{MetaCostcoKind: "^discount$"})
	add(s.SalesTaxAccount, map[string]string{MetaCostcoKind: "^tax$"})
	add(s.RewardsAccount, map[string]string{MetaCostcoKind: "^tender$", MetaCostcoTenderDescription: "Rebate"})
	add(s.CashAccount, map[string]string{MetaCostcoKind: "^tender$", MetaCostcoTenderDescription: "^Cash$"})
	if err := b.withRules(builtin...); err != nil {
		return nil, err
	}
	return &costco{base: b, s: s}, nil
}

func (a *costco) ReadRaw(data []byte, filename string) ([]reader.Record, error) {
	records, err := reader.ReadJSON(data, "")
	if err != nil {
		return nil, decodeError(filename, err)
	}
	return tagFile(records, filename), nil
}

func (a *costco) ToCanonical(rec reader.Record) (*models.Transaction, error) {
	if rec.String("documentType") != costcoReceiptDocument {
		return nil, nil
	}
	barcode := rec.String("transactionBarcode")
	if barcode == "" {
		return nil, errors.New("receipt has no transaction barcode")
	}
	date, err := a.timestamp(rec.String("transactionDateTime"), costcoTimeLayout)
	if err != nil {
		return nil, err
	}

	b := a.newTransaction(rec, barcode).
		SetDate(date).
		SetPayee("Costco").
		SetNarration(fmt.Sprintf("Costco warehouse #%s %s - %s - %s items",
			rec.String("warehouseNumber"), rec.String("warehouseShortName"),
			rec.String("transactionType"), rec.String("totalItemCount"))).
		SetMeta("costco_order_type", rec.String("transactionType")).
		SetMeta("costco_warehouse", joinNonBlank(rec, ", ",
			"warehouseName", "warehouseAddress1", "warehouseAddress2", "warehouseCity",
			"warehouseState", "warehouseCountry", "warehousePostalCode"))

	items := rec.Records("itemArray")
	rebates := map[string]decimal.Decimal{}
	for _, item := range items {
		if number, ok := rebatedItem(item); ok {
			amount, err := models.ParseAmount(item.String("amount"), models.AmountFormat{})
			if err != nil {
				return nil, err
			}
			rebates[number] = rebates[number].Add(amount)
		}
	}

	// Older receipts only carry a total of instant savings.
	if len(rebates) == 0 && rec.Has("instantSavings") {
		savings, err := models.ParseAmount(rec.String("instantSavings"), models.AmountFormat{})
		if err != nil {
			return nil, err
		}
		if !savings.IsZero() {
			b.AddPosting(costcoPosting("discount", savings.Neg()))
		}
	}

	for _, item := range items {
		if _, ok := rebatedItem(item); ok {
			continue
		}
		amount, err := models.ParseAmount(item.String("amount"), models.AmountFormat{})
		if err != nil {
			return nil, err
		}
		amount = amount.Add(rebates[item.String("itemNumber")])
		b.AddPosting(costcoPosting("item", amount).
			WithMeta(MetaCostcoItemDescription, strings.Join(strings.Fields(joinNonBlank(item, " ", "itemNumber", "itemDescription01", "itemDescription02")), " ")).
			WithMeta(MetaCostcoItemIdentifier, item.String("itemIdentifier")).
			WithMeta(MetaCostcoTaxFlag, item.String("taxFlag")))
	}

	taxes, err := models.ParseAmount(rec.String("taxes"), models.AmountFormat{BlankIsZero: true})
	if err != nil {
		return nil, err
	}
	b.AddPosting(costcoPosting("tax", taxes))

	for _, tender := range rec.Records("tenderArray") {
		amount, err := models.ParseAmount(tender.String("amountTender"), models.AmountFormat{})
		if err != nil {
			return nil, err
		}
		b.AddPosting(costcoPosting("tender", amount.Neg()).
			WithMeta(MetaCostcoTenderDescription, joinNonBlank(tender, ", ", "tenderDescription", "displayAccountNumber")))
	}
	return b.Build()
}

func costcoPosting(kind string, amount decimal.Decimal) models.Posting {
	return models.NewPosting(models.UnclassifiedAccount, amount, "USD").WithMeta(MetaCostcoKind, kind)
}

// rebatedItem reports whether item is a rebate and which item number it
// applies to. Rebates are described as "/1575321"; newer receipts keep the
// description in frenchItemDescription1.
func rebatedItem(item reader.Record) (string, bool) {
	for _, field := range []string{"itemDescription01", "frenchItemDescription1"} {
		if d := item.String(field); strings.HasPrefix(d, "/") {
			return strings.TrimLeft(d, "/"), true
		}
	}
	return "", false
}

func joinNonBlank(rec reader.Record, sep string, fields ...string) string {
	var parts []string
	for _, f := range fields {
		if v := rec.String(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
