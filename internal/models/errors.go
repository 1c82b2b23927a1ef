package models

import "errors"

// ReasonError is a recoverable business failure identified by a client-facing key.
type ReasonError struct {
	Code string
}

func (e *ReasonError) Error() string {
	return e.Code
}

func NewReason(code string) *ReasonError {
	return &ReasonError{Code: code}
}

// ReasonCode extracts the key of a ReasonError, or "" for any other error.
func ReasonCode(err error) string {
	var re *ReasonError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func IsReason(err error) bool {
	return ReasonCode(err) != ""
}

var (
	ErrUserNotFound         = NewReason("errorUserNotFound")
	ErrUserOrVipNotFound    = NewReason("errorUserOrVipNotFound")
	ErrUserBanned           = NewReason("errorUserBanned")
	ErrEmailExists          = NewReason("email_exists")
	ErrInvalidInvitation    = NewReason("invalid_invitation_code")
	ErrInvalidCredentials   = NewReason("invalid_credentials")
	ErrIncorrectOldPassword = NewReason("incorrectOldPassword")
	ErrInvalidPassword      = NewReason("invalidPassword")
	ErrInvalidEmail         = NewReason("invalid_email")
	ErrWeakPassword         = NewReason("password_too_short")
	ErrPasswordFormat       = NewReason("passwordInvalid")
	ErrInvalidToken         = NewReason("invalid_token")

	ErrInsufficientBalance     = NewReason("insufficientBalance")
	ErrInsufficientMainBalance = NewReason("insufficient_balance")
	ErrDeductionTooLarge       = NewReason("deductionAmountGreaterThanBalance")
	ErrInvalidAmount           = NewReason("pleaseEnterValidAmount")
	ErrInvalidAccount          = NewReason("invalid_account")
	ErrInvalidAction           = NewReason("invalid_action")
	ErrInvalidStatus           = NewReason("invalid_status")

	ErrTaskOrUserNotFound    = NewReason("errorTaskOrUserNotFound")
	ErrTaskNotActive         = NewReason("errorTaskNotActive")
	ErrTaskInProgress        = NewReason("taskInProgressError")
	ErrNoTasksAvailable      = NewReason("noTasksAvailable")
	ErrCrawlSetDisabled      = NewReason("errorCrawlSetDisabled")
	ErrInvalidCrawlSet       = NewReason("errorInvalidCrawlSet")
	ErrTaskAlreadyCompleted  = NewReason("errorTaskAlreadyCompleted")
	ErrNoActiveTask          = NewReason("errorNoActiveTask")
	ErrCrawlModeActive       = NewReason("errorCrawlModeActive")
	ErrVipAlreadyOwned       = NewReason("errorVipAlreadyOwned")
	ErrVipNotFound           = NewReason("errorVipNotFound")
	ErrVipInUse              = NewReason("errorVipInUse")
	ErrRewardAlreadyClaimed  = NewReason("reward_already_claimed")
	ErrRequestNotFound       = NewReason("errorRequestNotFound")
	ErrRequestNotPending     = NewReason("errorRequestNotPending")
	ErrUnsupportedCurrency   = NewReason("errorUnsupportedCurrency")
	ErrProofRequired         = NewReason("pleaseUploadProof")
	ErrWithdrawalClosed      = NewReason("withdrawalChannelClosed")
	ErrCompleteTasksFirst    = NewReason("completeTasksTitle")
	ErrAddressRequired       = NewReason("pleaseEnterWalletAddress")
	ErrInvalidAddress        = NewReason("invalidWalletAddress")
	ErrAmountBelowMinimum    = NewReason("amountBelowMinimum")
	ErrAmountAboveMaximum    = NewReason("amountAboveMaximum")
	ErrActivityNotFound      = NewReason("errorActivityNotFound")
	ErrMessageNotFound       = NewReason("errorMessageNotFound")
	ErrWalletNotConfigured   = NewReason("errorWalletNotConfigured")
	ErrInvalidSettings       = NewReason("invalid_settings")
	ErrSettingsConflict      = NewReason("settings_version_conflict")
	ErrInvalidLinkCode       = NewReason("invalid_link_code")
	ErrTelegramAlreadyLinked = NewReason("telegram_already_linked")
)
