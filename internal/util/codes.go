package util

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	INVITATION_CODE_LENGTH = 6
	invitationAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateInvitationCode returns a random base36 code; uniqueness is checked by the caller.
func GenerateInvitationCode() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(invitationAlphabet)))
	for i := 0; i < INVITATION_CODE_LENGTH; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(invitationAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

func IsInvitationCode(code string) bool {
	if len(code) != INVITATION_CODE_LENGTH {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(invitationAlphabet, c) {
			return false
		}
	}
	return true
}

// GenerateLinkCode returns a one-time code usable as a Telegram /start payload.
func GenerateLinkCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func ReferralLink(domain, code string) string {
	return strings.TrimRight(domain, "/") + "/?ref=" + code
}
