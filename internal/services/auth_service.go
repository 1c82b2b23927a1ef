package services

import (
	"errors"
	"strconv"
	"time"
	"unicode"

	"taskhub/internal/models"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const MIN_PASSWORD_LENGTH = 6

type Claims struct {
	UserId int64 `json:"uid"`
	jwt.RegisteredClaims
}

type AuthService struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    Clock
}

func NewAuthService(secret string, ttl time.Duration, now Clock) *AuthService {
	return &AuthService{
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    defaultClock(now),
	}
}

// SetCost changes the bcrypt cost for new hashes.
func (s *AuthService) SetCost(cost int) {
	s.cost = cost
}

// ValidatePassword applies the registration rules: length first, then an upper-case letter or digit.
func ValidatePassword(password string) error {
	if len(password) < MIN_PASSWORD_LENGTH {
		return models.ErrWeakPassword
	}
	for _, r := range password {
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			return nil
		}
	}
	return models.ErrPasswordFormat
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		log.Error("Failed to hash password: ", err)
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs an HS256 access token for a user.
func (s *AuthService) IssueToken(userId int64) (string, time.Time, error) {
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := &Claims{
		UserId: userId,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userId, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		log.Error("Failed to sign token: ", err)
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (s *AuthService) ParseToken(token string) (int64, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return 0, errors.Join(models.ErrInvalidToken, err)
	}
	if claims.UserId == 0 {
		return 0, models.ErrInvalidToken
	}
	return claims.UserId, nil
}
