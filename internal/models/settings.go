package models

import (
	"github.com/shopspring/decimal"
)

type RechargeCurrency struct {
	Id       string   `json:"id"`
	Name     string   `json:"name"`
	IconUrl  string   `json:"icon_url,omitempty"`
	Networks []string `json:"networks"`
}

type LoginReward struct {
	Day    int             `json:"day"`
	Amount decimal.Decimal `json:"amount"`
}

type PlatformSettings struct {
	Version                 int64                      `json:"version"`
	Name                    string                     `json:"name"`
	LogoUrl                 string                     `json:"logo_url"`
	CustomerServiceName     string                     `json:"customer_service_name"`
	CustomerServiceLink     string                     `json:"customer_service_link"`
	HomeMarqueeText         string                     `json:"home_marquee_text"`
	CompanyProfileText      string                     `json:"company_profile_text"`
	ReferralDomain          string                     `json:"referral_domain"`
	AvatarUrls              []string                   `json:"avatar_urls"`
	MinWithdrawal           decimal.Decimal            `json:"min_withdrawal"`
	MaxWithdrawal           decimal.Decimal            `json:"max_withdrawal"`
	WithdrawalFeePercentage decimal.Decimal            `json:"withdrawal_fee_percentage"`
	GlobalWithdrawalLock    bool                       `json:"global_withdrawal_lock"`
	CommissionRates         CommissionRates            `json:"commission_rates"`
	RechargeCurrencies      []RechargeCurrency         `json:"recharge_currencies"`
	CurrencyPrices          map[string]decimal.Decimal `json:"currency_prices"`
	LoginRewards            []LoginReward              `json:"login_rewards"`
}

// LoginRewardFor returns the reward configured for a streak day.
func (s *PlatformSettings) LoginRewardFor(day int) (decimal.Decimal, bool) {
	for _, r := range s.LoginRewards {
		if r.Day == day {
			return r.Amount, true
		}
	}
	return decimal.Zero, false
}

func (s *PlatformSettings) SupportsRecharge(currency, network string) bool {
	for _, c := range s.RechargeCurrencies {
		if c.Name != currency && c.Id != currency {
			continue
		}
		for _, n := range c.Networks {
			if n == network {
				return true
			}
		}
	}
	return false
}

// PriceOf is the USDT price of one unit of currency; unknown currencies count as 1.
func (s *PlatformSettings) PriceOf(currency string) decimal.Decimal {
	if p, ok := s.CurrencyPrices[currency]; ok && p.IsPositive() {
		return p
	}
	return decimal.NewFromInt(1)
}

// Validate checks the ranges an operator can get wrong.
func (s *PlatformSettings) Validate() error {
	if s.MinWithdrawal.IsNegative() || s.MaxWithdrawal.LessThan(s.MinWithdrawal) {
		return ErrInvalidSettings
	}
	if s.WithdrawalFeePercentage.IsNegative() || s.WithdrawalFeePercentage.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidSettings
	}
	for level, rate := range s.CommissionRates {
		if level < 1 || rate.IsNegative() {
			return ErrInvalidSettings
		}
	}
	for _, r := range s.LoginRewards {
		if r.Day <= 0 || r.Amount.IsNegative() {
			return ErrInvalidSettings
		}
	}
	return nil
}

// PublicSettings is the subset of settings exposed without authentication.
type PublicSettings struct {
	Name                    string             `json:"name"`
	LogoUrl                 string             `json:"logo_url"`
	CustomerServiceName     string             `json:"customer_service_name"`
	CustomerServiceLink     string             `json:"customer_service_link"`
	HomeMarqueeText         string             `json:"home_marquee_text"`
	CompanyProfileText      string             `json:"company_profile_text"`
	ReferralDomain          string             `json:"referral_domain"`
	MinWithdrawal           decimal.Decimal    `json:"min_withdrawal"`
	MaxWithdrawal           decimal.Decimal    `json:"max_withdrawal"`
	WithdrawalFeePercentage decimal.Decimal    `json:"withdrawal_fee_percentage"`
	RechargeCurrencies      []RechargeCurrency `json:"recharge_currencies"`
	LoginRewards            []LoginReward      `json:"login_rewards"`
}

func (s *PlatformSettings) Public() PublicSettings {
	return PublicSettings{
		Name:                    s.Name,
		LogoUrl:                 s.LogoUrl,
		CustomerServiceName:     s.CustomerServiceName,
		CustomerServiceLink:     s.CustomerServiceLink,
		HomeMarqueeText:         s.HomeMarqueeText,
		CompanyProfileText:      s.CompanyProfileText,
		ReferralDomain:          s.ReferralDomain,
		MinWithdrawal:           s.MinWithdrawal,
		MaxWithdrawal:           s.MaxWithdrawal,
		WithdrawalFeePercentage: s.WithdrawalFeePercentage,
		RechargeCurrencies:      s.RechargeCurrencies,
		LoginRewards:            s.LoginRewards,
	}
}

func (s *PlatformSettings) Clone() *PlatformSettings {
	c := *s
	c.AvatarUrls = append([]string(nil), s.AvatarUrls...)
	c.CommissionRates = s.CommissionRates.Clone()
	c.RechargeCurrencies = make([]RechargeCurrency, len(s.RechargeCurrencies))
	for i, rc := range s.RechargeCurrencies {
		rc.Networks = append([]string(nil), rc.Networks...)
		c.RechargeCurrencies[i] = rc
	}
	if s.CurrencyPrices != nil {
		c.CurrencyPrices = make(map[string]decimal.Decimal, len(s.CurrencyPrices))
		for k, v := range s.CurrencyPrices {
			c.CurrencyPrices[k] = v
		}
	}
	c.LoginRewards = append([]LoginReward(nil), s.LoginRewards...)
	return &c
}
