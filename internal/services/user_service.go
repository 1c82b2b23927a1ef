package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/mail"
	"strings"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/util"

	"github.com/shopspring/decimal"
)

const (
	BALANCE_ACTION_ADD    = "add"
	BALANCE_ACTION_DEDUCT = "deduct"

	DEFAULT_VIP_LEVEL = "Nadec1"

	invitationCodeAttempts = 10
)

type UserService struct {
	store repositories.Store
	auth  *AuthService
	now   Clock
}

func NewUserService(store repositories.Store, auth *AuthService, now Clock) *UserService {
	return &UserService{
		store: store,
		auth:  auth,
		now:   defaultClock(now),
	}
}

type Registration struct {
	Email          string
	Phone          string
	Password       string
	InvitationCode string
	IpAddress      string
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *UserService) Register(ctx context.Context, r Registration) (*models.User, error) {
	email := strings.TrimSpace(r.Email)
	if !validEmail(email) {
		return nil, observe("user.register", models.ErrInvalidEmail)
	}
	if err := ValidatePassword(r.Password); err != nil {
		return nil, observe("user.register", err)
	}
	hash, err := s.auth.HashPassword(r.Password)
	if err != nil {
		return nil, observe("user.register", err)
	}

	var user *models.User
	err = s.store.Atomic(ctx, func(tx repositories.Tx) error {
		if _, err := tx.UserByEmail(email); err == nil {
			return models.ErrEmailExists
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		inviter := strings.TrimSpace(r.InvitationCode)
		if inviter != "" {
			if _, err := tx.UserByInvitationCode(inviter); errors.Is(err, repositories.ErrNotFound) {
				return models.ErrInvalidInvitation
			} else if err != nil {
				return err
			}
		}

		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		levels, err := tx.VipLevels()
		if err != nil {
			return err
		}
		startLevel := DEFAULT_VIP_LEVEL
		if len(levels) > 0 {
			startLevel = levels[0].Name
		}

		code, err := s.freeInvitationCode(tx)
		if err != nil {
			return err
		}

		now := s.now()
		user = &models.User{
			Email:          email,
			Phone:          strings.TrimSpace(r.Phone),
			PasswordHash:   hash,
			VipLevel:       startLevel,
			Status:         models.USER_STATUS_ACTIVE,
			RegisteredAt:   now,
			LastLoginAt:    now,
			IpAddress:      r.IpAddress,
			InvitationCode: code,
			InvitedBy:      inviter,
			CrawlSets:      models.NewCrawlSets(),
			ReadMessageIds: models.Int64List{},
		}
		if len(settings.AvatarUrls) > 0 {
			user.AvatarUrl = settings.AvatarUrls[rand.Intn(len(settings.AvatarUrls))]
		}

		if err := tx.CreateUser(user); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return models.ErrEmailExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, observe("user.register", err)
	}

	log.Infof("Registered user %d (%s), invited by %q", user.UserId(), user.Email, user.InvitedBy)
	return user, observe("user.register", nil)
}

func (s *UserService) freeInvitationCode(tx repositories.Tx) (string, error) {
	for i := 0; i < invitationCodeAttempts; i++ {
		code, err := util.GenerateInvitationCode()
		if err != nil {
			return "", err
		}
		_, err = tx.UserByInvitationCode(code)
		if errors.Is(err, repositories.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not allocate a free invitation code")
}

// Authenticate checks credentials and records the login time and address.
func (s *UserService) Authenticate(ctx context.Context, email, password, ip string) (*models.User, error) {
	var user *models.User
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		user, err = tx.UserByEmail(email)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ErrInvalidCredentials
		}
		return err
	})
	if err != nil {
		return nil, observe("user.login", err)
	}
	if !s.auth.CheckPassword(user.PasswordHash, password) {
		return nil, observe("user.login", models.ErrInvalidCredentials)
	}
	if user.IsBanned() {
		return nil, observe("user.login", models.ErrUserBanned)
	}

	err = s.store.Atomic(ctx, func(tx repositories.Tx) error {
		u, err := loadUser(tx, user.UserId())
		if err != nil {
			return err
		}
		u.LastLoginAt = s.now()
		if ip != "" {
			u.IpAddress = ip
		}
		if err := saveUser(tx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, observe("user.login", err)
	}
	return user, observe("user.login", nil)
}

func (s *UserService) GetById(ctx context.Context, id int64) (*models.User, error) {
	var user *models.User
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		user, err = loadUser(tx, id)
		return err
	})
	return user, err
}

func (s *UserService) GetByTelegramChat(ctx context.Context, chatId int64) (*models.User, error) {
	var user *models.User
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		user, err = tx.UserByTelegramChat(chatId)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ErrUserNotFound
		}
		return err
	})
	return user, err
}

func (s *UserService) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return observe("user.change_password", err)
	}
	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return observe("user.change_password", err)
	}

	err = s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, id)
		if err != nil {
			return err
		}
		if !s.auth.CheckPassword(user.PasswordHash, oldPassword) {
			return models.ErrIncorrectOldPassword
		}
		user.PasswordHash = hash
		return saveUser(tx, user)
	})
	return observe("user.change_password", err)
}

// ListUsers searches by email, phone, invitation code or IP, newest first.
func (s *UserService) ListUsers(ctx context.Context, query string, offset, limit int) ([]models.User, int, error) {
	var (
		users []models.User
		total int
	)
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		users, total, err = tx.FindUsers(query, offset, limit)
		return err
	})
	return users, total, err
}

// UserUpdate carries the operator-editable fields; nil means unchanged.
type UserUpdate struct {
	Status                  *string
	WithdrawalEnabled       *bool
	WithdrawalFeeOverride   *decimal.NullDecimal
	CommissionRatesOverride *models.CommissionRates
	Phone                   *string
	AvatarUrl               *string
}

func (u UserUpdate) validate() error {
	if u.Status != nil && *u.Status != models.USER_STATUS_ACTIVE && *u.Status != models.USER_STATUS_BANNED {
		return models.ErrInvalidStatus
	}
	if u.WithdrawalFeeOverride != nil && u.WithdrawalFeeOverride.Valid {
		fee := u.WithdrawalFeeOverride.Decimal
		if fee.IsNegative() || fee.GreaterThan(hundred) {
			return models.ErrInvalidSettings
		}
	}
	if u.CommissionRatesOverride != nil {
		for level, rate := range *u.CommissionRatesOverride {
			if level < 1 || level > MAX_COMMISSION_LEVELS || rate.IsNegative() {
				return models.ErrInvalidSettings
			}
		}
	}
	return nil
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, update UserUpdate) (*models.User, error) {
	if err := update.validate(); err != nil {
		return nil, observe("admin.update_user", err)
	}

	var user *models.User
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		user, err = loadUser(tx, id)
		if err != nil {
			return err
		}
		if update.Status != nil {
			user.Status = *update.Status
		}
		if update.WithdrawalEnabled != nil {
			user.WithdrawalEnabled = *update.WithdrawalEnabled
		}
		if update.WithdrawalFeeOverride != nil {
			user.WithdrawalFeePercentageOverride = *update.WithdrawalFeeOverride
		}
		if update.CommissionRatesOverride != nil {
			user.CommissionRatesOverride = update.CommissionRatesOverride.Clone()
		}
		if update.Phone != nil {
			user.Phone = strings.TrimSpace(*update.Phone)
		}
		if update.AvatarUrl != nil {
			user.AvatarUrl = *update.AvatarUrl
		}
		return saveUser(tx, user)
	})
	if err != nil {
		return nil, observe("admin.update_user", err)
	}
	return user, observe("admin.update_user", nil)
}

// ToggleWithdrawal flips the per-user withdrawal switch and returns the new value.
func (s *UserService) ToggleWithdrawal(ctx context.Context, id int64) (bool, error) {
	var enabled bool
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, id)
		if err != nil {
			return err
		}
		user.WithdrawalEnabled = !user.WithdrawalEnabled
		enabled = user.WithdrawalEnabled
		return saveUser(tx, user)
	})
	return enabled, observe("admin.toggle_withdrawal", err)
}

// AdjustBalance credits or debits one account by hand and records it in the ledger.
func (s *UserService) AdjustBalance(ctx context.Context, id int64, amount decimal.Decimal, account, action string) (*models.User, error) {
	amount = util.RoundAmount(amount)
	if !amount.IsPositive() {
		return nil, observe("admin.adjust_balance", models.ErrInvalidAmount)
	}
	if account != models.ACCOUNT_MAIN && account != models.ACCOUNT_WITHDRAWAL {
		return nil, observe("admin.adjust_balance", models.ErrInvalidAccount)
	}

	var (
		txType = models.TX_ADMIN_ADDITION
		signed = amount
	)
	switch action {
	case BALANCE_ACTION_ADD:
	case BALANCE_ACTION_DEDUCT:
		txType = models.TX_ADMIN_DEDUCTION
		signed = amount.Neg()
	default:
		return nil, observe("admin.adjust_balance", models.ErrInvalidAction)
	}

	var user *models.User
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		user, err = loadUser(tx, id)
		if err != nil {
			return err
		}
		if err := postEntry(tx, user, account, signed, txType, "", s.now()); err != nil {
			if errors.Is(err, models.ErrInsufficientBalance) {
				return models.ErrDeductionTooLarge
			}
			return err
		}
		return saveUser(tx, user)
	})
	if err != nil {
		return nil, observe("admin.adjust_balance", err)
	}
	log.Infof("Admin %s of %s on %s account of user %d", action, amount, account, id)
	return user, observe("admin.adjust_balance", nil)
}
