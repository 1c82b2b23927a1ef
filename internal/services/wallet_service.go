package services

import (
	"context"
	"errors"
	"strings"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// WalletService manages the platform's deposit addresses shown on the recharge screen.
type WalletService struct {
	store repositories.Store
}

func NewWalletService(store repositories.Store) *WalletService {
	return &WalletService{
		store: store,
	}
}

func (s *WalletService) GetWalletAddress(ctx context.Context, currency, network string) (*models.WalletAddress, error) {
	var w *models.WalletAddress
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		w, err = tx.WalletAddress(currency, network)
		if errors.Is(err, repositories.ErrNotFound) || (err == nil && w.Address == "") {
			return models.ErrWalletNotConfigured
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WalletService) ListWalletAddresses(ctx context.Context) ([]models.WalletAddress, error) {
	var res []models.WalletAddress
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		res, err = tx.WalletAddresses()
		return err
	})
	return res, err
}

// SetWalletAddress creates or replaces the address of a currency and network pair
// offered for recharges.
func (s *WalletService) SetWalletAddress(ctx context.Context, w models.WalletAddress) (*models.WalletAddress, error) {
	w.Currency = strings.TrimSpace(w.Currency)
	w.Network = strings.TrimSpace(w.Network)
	w.Address = strings.TrimSpace(w.Address)
	if w.Address == "" {
		return nil, observe("admin.set_wallet", models.ErrAddressRequired)
	}
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		if !settings.SupportsRecharge(w.Currency, w.Network) {
			return models.ErrUnsupportedCurrency
		}
		return tx.SaveWalletAddress(&w)
	})
	if err != nil {
		return nil, observe("admin.set_wallet", err)
	}
	log.Infof("Deposit address for %s/%s set to %s", w.Currency, w.Network, w.Address)
	return &w, observe("admin.set_wallet", nil)
}

func (s *WalletService) DeleteWalletAddress(ctx context.Context, currency, network string) error {
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		err := tx.DeleteWalletAddress(currency, network)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ErrWalletNotConfigured
		}
		return err
	})
	return observe("admin.delete_wallet", err)
}
