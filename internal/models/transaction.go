package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ACCOUNT_MAIN       = "main"
	ACCOUNT_WITHDRAWAL = "withdrawal"
)

const (
	//ledger entry types
	TX_RECHARGE            = "recharge"            //recharge approved, main account
	TX_VIP_PURCHASE        = "vip_purchase"        //tier upgrade paid from main
	TX_WITHDRAWAL          = "withdrawal"          //net withdrawal amount
	TX_WITHDRAWAL_FEE      = "withdrawal_fee"      //fee part of a withdrawal
	TX_WITHDRAWAL_REFUND   = "withdrawal_refund"   //rejected withdrawal, gross returned
	TX_TASK_INCOME         = "task_income"         //daily task or crawl task return
	TX_CRAWL_TASK_PURCHASE = "crawl_task_purchase" //crawl task price
	TX_REFERRAL_COMMISSION = "referral_commission" //commission cascade credit
	TX_SYSTEM_BONUS        = "system_bonus"        //approved activity submission
	TX_LOGIN_REWARD        = "login_reward"        //login streak reward
	TX_ADMIN_ADDITION      = "tx_admin_addition"   //manual credit
	TX_ADMIN_DEDUCTION     = "tx_admin_deduction"  //manual debit
)

type Transaction struct {
	Id          int64           `db:"id" json:"id"`
	UserId      int64           `db:"user_id" json:"user_id"`
	Account     string          `db:"account" json:"account"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Type        string          `db:"type" json:"type"`
	Description string          `db:"description" json:"description"`
	Metadata    string          `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// TransactionDescription is the translation key clients render for a ledger type.
func TransactionDescription(txType string) string {
	switch txType {
	case TX_ADMIN_ADDITION, TX_ADMIN_DEDUCTION:
		return txType
	default:
		return "tx_" + txType
	}
}

// AccountDrift is the difference between a stored balance and the ledger sum for one account.
type AccountDrift struct {
	UserId    int64           `json:"user_id"`
	Account   string          `json:"account"`
	Balance   decimal.Decimal `json:"balance"`
	LedgerSum decimal.Decimal `json:"ledger_sum"`
}

func (d AccountDrift) Delta() decimal.Decimal {
	return d.Balance.Sub(d.LedgerSum)
}
