package core

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"lessonhub/pkg/logger"
	"lessonhub/pkg/models"
)

const (
	otpKeyPrefix = "otp:login:"
	otpLength    = 6
	otpTTL       = 10 * time.Minute
)

// ErrInvalidOTP is returned for unknown, expired, or already-used codes
var ErrInvalidOTP = models.NewUnauthorizedError("invalid or expired one-time code")

// OTPService issues and verifies one-time login codes.
// Codes are stored in redis with a 10 minute TTL and consumed on first use.
type OTPService interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*models.LoginResponse, error)
}

type otpService struct {
	rdb  *redis.Client
	auth AuthService
}

func NewOTPService(rdb *redis.Client, auth AuthService) OTPService {
	return &otpService{rdb: rdb, auth: auth}
}

// RequestCode generates a code for an existing account and stores it.
// Unknown emails are not reported to the caller to avoid account probing.
func (s *otpService) RequestCode(ctx context.Context, email string) error {
	user, err := s.auth.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Debugf("one-time code requested for unknown email")
		return nil
	}
	if !user.Active {
		return nil
	}

	code, err := generateNumericCode(otpLength)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	if err := s.rdb.Set(ctx, otpKeyPrefix+email, code, otpTTL).Err(); err != nil {
		return fmt.Errorf("failed to store one-time code: %w", err)
	}

	// Delivery is handled out of band. The code is logged at debug level
	// for development environments only.
	logger.Debugf("one-time login code issued for %s: %s", email, code)

	return nil
}

// VerifyCode checks a submitted code and issues a session token on match.
// The stored code is deleted before comparison so each code is single-use.
func (s *otpService) VerifyCode(ctx context.Context, email, code string) (*models.LoginResponse, error) {
	key := otpKeyPrefix + email

	stored, err := s.rdb.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read one-time code: %w", err)
	}

	if stored != code {
		return nil, ErrInvalidOTP
	}

	user, err := s.auth.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidOTP
	}
	if !user.Active {
		return nil, models.ErrAccountDisabled
	}

	return s.auth.LoginForUser(ctx, user)
}

func generateNumericCode(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}
