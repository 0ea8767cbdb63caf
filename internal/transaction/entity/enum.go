package entity

import "fmt"

// Enum values are the short wire codes persisted and exposed over HTTP.

type TxType string

const (
	TxTypeDeposit      TxType = "DP"
	TxTypeWithdrawal   TxType = "WD"
	TxTypeTransferOut  TxType = "TO"
	TxTypeTransferIn   TxType = "TI"
	TxTypePayment      TxType = "PMT"
	TxTypeRefund       TxType = "RF"
	TxTypeFee          TxType = "FEE"
	TxTypeInterest     TxType = "INT"
	TxTypeAdjustment   TxType = "ADJ"
	TxTypeCardPurchase TxType = "CP"
	TxTypeCardRefund   TxType = "CR"
)

func ParseTxType(value string) (TxType, error) {
	switch TxType(value) {
	case TxTypeDeposit, TxTypeWithdrawal, TxTypeTransferOut, TxTypeTransferIn,
		TxTypePayment, TxTypeRefund, TxTypeFee, TxTypeInterest,
		TxTypeAdjustment, TxTypeCardPurchase, TxTypeCardRefund:
		return TxType(value), nil
	default:
		return "", fmt.Errorf("unknown transaction type code: %s", value)
	}
}

type DebitCredit string

const (
	DebitCreditDebit  DebitCredit = "DR"
	DebitCreditCredit DebitCredit = "CR"
)

func ParseDebitCredit(value string) (DebitCredit, error) {
	switch DebitCredit(value) {
	case DebitCreditDebit, DebitCreditCredit:
		return DebitCredit(value), nil
	default:
		return "", fmt.Errorf("unknown debit/credit code: %s", value)
	}
}

type TxStatus string

const (
	TxStatusPending   TxStatus = "P"
	TxStatusCompleted TxStatus = "C"
	TxStatusFailed    TxStatus = "F"
)

func ParseTxStatus(value string) (TxStatus, error) {
	switch TxStatus(value) {
	case TxStatusPending, TxStatusCompleted, TxStatusFailed:
		return TxStatus(value), nil
	default:
		return "", fmt.Errorf("unknown transaction status code: %s", value)
	}
}
