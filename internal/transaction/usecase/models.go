package usecase

import (
	"regexp"

	"github.com/shandysiswandi/gobank/internal/transaction/entity"
	"github.com/shopspring/decimal"
)

var (
	tradeNoPattern  = regexp.MustCompile(`^\d{18}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

const maxDescriptionLen = 500

// amounts must stay below 10^17 so they fit 17 integer digits
var maxAmountExclusive = decimal.New(1, 17)

// CreateTransactionInput carries the caller-supplied fields of a new record.
//
// ID, Status, CreatedAt and UpdatedAt are never accepted from callers.
type CreateTransactionInput struct {
	TradeNo       string
	AccountNumber string
	AccountName   string
	PayeeAccount  string
	PayeeName     string
	Amount        decimal.Decimal
	Currency      string
	Type          entity.TxType
	DebitCredit   entity.DebitCredit
	Description   string
}

func (in CreateTransactionInput) validate() map[string]string {
	fields := validateMutableFields(in.Amount, in.Currency, in.Type, in.DebitCredit, in.Description)

	if !tradeNoPattern.MatchString(in.TradeNo) {
		fields["tradeNo"] = "trade number must be 18 digits"
	}
	if in.AccountNumber == "" {
		fields["accountNumber"] = "account number is required"
	}
	if in.AccountName == "" {
		fields["accountName"] = "account name is required"
	}
	if in.PayeeAccount == "" {
		fields["payeeAccount"] = "payee account is required"
	}
	if in.PayeeName == "" {
		fields["payeeName"] = "payee name is required"
	}

	return fields
}

// UpdateTransactionInput is the full replacement set for the mutable fields.
//
// Both update paths (by id and by trade number) accept the same set,
// including DebitCredit. ID, TradeNo, Status and CreatedAt are immutable.
type UpdateTransactionInput struct {
	AccountNumber string
	AccountName   string
	PayeeAccount  string
	PayeeName     string
	Amount        decimal.Decimal
	Currency      string
	Type          entity.TxType
	DebitCredit   entity.DebitCredit
	Description   string
}

func (in UpdateTransactionInput) validate() map[string]string {
	fields := validateMutableFields(in.Amount, in.Currency, in.Type, in.DebitCredit, in.Description)

	if in.AccountNumber == "" {
		fields["accountNumber"] = "account number is required"
	}
	if in.AccountName == "" {
		fields["accountName"] = "account name is required"
	}
	if in.PayeeAccount == "" {
		fields["payeeAccount"] = "payee account is required"
	}
	if in.PayeeName == "" {
		fields["payeeName"] = "payee name is required"
	}

	return fields
}

func (in UpdateTransactionInput) applyTo(tx *entity.Transaction) {
	tx.AccountNumber = in.AccountNumber
	tx.AccountName = in.AccountName
	tx.PayeeAccount = in.PayeeAccount
	tx.PayeeName = in.PayeeName
	tx.Amount = in.Amount
	tx.Currency = in.Currency
	tx.Type = in.Type
	tx.DebitCredit = in.DebitCredit
	tx.Description = in.Description
}

func validateMutableFields(
	amount decimal.Decimal,
	currency string,
	txType entity.TxType,
	debitCredit entity.DebitCredit,
	description string,
) map[string]string {
	fields := make(map[string]string)

	if !amount.IsPositive() {
		fields["amount"] = "amount must be greater than zero"
	} else if !amount.LessThan(maxAmountExclusive) {
		fields["amount"] = "amount exceeds 17 integer digits"
	} else if !amount.Equal(amount.Truncate(2)) {
		fields["amount"] = "amount allows at most 2 decimal places"
	}

	if !currencyPattern.MatchString(currency) {
		fields["currency"] = "currency must be a 3-letter uppercase code"
	}

	if _, err := entity.ParseTxType(string(txType)); err != nil {
		fields["type"] = "unknown transaction type code"
	}

	if _, err := entity.ParseDebitCredit(string(debitCredit)); err != nil {
		fields["debitCredit"] = "unknown debit/credit code"
	}

	if len(description) > maxDescriptionLen {
		fields["description"] = "description allows at most 500 characters"
	}

	return fields
}
