package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

const (
	REQUEST_PENDING  = "pending"
	REQUEST_APPROVED = "approved"
	REQUEST_REJECTED = "rejected"
)

type RechargeRequest struct {
	Id           int64           `db:"id" json:"id"`
	UserId       int64           `db:"user_id" json:"user_id"`
	UserEmail    string          `db:"user_email" json:"user_email"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Currency     string          `db:"currency" json:"currency"`
	Network      string          `db:"network" json:"network"`
	PaymentProof string          `db:"payment_proof" json:"payment_proof"`
	Status       string          `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  sql.NullTime    `db:"processed_at" json:"-"`
}

type WithdrawalRequest struct {
	Id             int64           `db:"id" json:"id"`
	UserId         int64           `db:"user_id" json:"user_id"`
	UserEmail      string          `db:"user_email" json:"user_email"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	UsdtValue      decimal.Decimal `db:"usdt_value" json:"usdt_value"`
	GrossUsdtValue decimal.Decimal `db:"gross_usdt_value" json:"gross_usdt_value"`
	Currency       string          `db:"currency" json:"currency"`
	Network        string          `db:"network" json:"network"`
	Address        string          `db:"address" json:"address"`
	Status         string          `db:"status" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt    sql.NullTime    `db:"processed_at" json:"-"`
}

// Fee is the part of the gross value kept by the platform.
func (w *WithdrawalRequest) Fee() decimal.Decimal {
	return w.GrossUsdtValue.Sub(w.UsdtValue)
}

type ActivitySubmission struct {
	Id              int64     `db:"id" json:"id"`
	UserId          int64     `db:"user_id" json:"user_id"`
	UserEmail       string    `db:"user_email" json:"user_email"`
	ActivityId      string    `db:"activity_id" json:"activity_id"`
	ActivityTitle   string    `db:"activity_title" json:"activity_title"`
	SampleImage     string    `db:"sample_image" json:"sample_image"`
	CompletionNotes string    `db:"completion_notes" json:"completion_notes"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Commission is one credited level of a referral cascade.
type Commission struct {
	Level      int             `json:"level"`
	ReferrerId int64           `json:"referrer_id"`
	Rate       decimal.Decimal `json:"rate"`
	Amount     decimal.Decimal `json:"amount"`
}
