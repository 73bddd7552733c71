package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/ports"
	"github.com/bactolab/lims/internal/core/ratelimit"
	"github.com/bactolab/lims/internal/pkg/metrics"
)

const defaultTokenTTL = 8 * time.Hour

// dummyHash stands in for the password hash of unknown and inactive accounts.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("lims-no-such-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt dummy hash: %v", err))
	}
	return h
})

// AuthService implements login and account registration.
type AuthService struct {
	repo      ports.UserRepository
	lockout   *ratelimit.Lockout
	audit     ports.AuditRecorder
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
	compare   func(hash, password []byte) error
	dummyHash []byte
}

func NewAuthService(
	repo ports.UserRepository,
	lockout *ratelimit.Lockout,
	audit ports.AuditRecorder,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		repo:      repo,
		lockout:   lockout,
		audit:     audit,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       time.Now,
		compare:   bcrypt.CompareHashAndPassword,
		dummyHash: dummyHash(),
	}
}

// Login checks the lockout before touching credentials. Unknown accounts,
// inactive accounts and wrong passwords are recorded the same way and return
// the same error, so callers cannot tell which one happened.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (string, *domain.User, error) {
	email := ratelimit.NormalizeIdentifier(in.Email)
	if email == "" || in.Password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	// 1. Lockout first.
	st, err := s.lockout.Status(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if st.Locked {
		s.record(domain.AuditEntry{Event: domain.AuditLoginLocked, Actor: email, ClientIP: in.ClientIP})
		return "", nil, &domain.AccountLockedError{RetryAfter: st.RetryAfter}
	}

	// 2. Account lookup.
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	// 3. Credential check. Exactly one bcrypt comparison on every path.
	hash := s.dummyHash
	if user != nil && user.IsActive {
		hash = []byte(user.PasswordHash)
	}
	match := s.compare(hash, []byte(in.Password)) == nil
	if user == nil || !user.IsActive || !match {
		return "", nil, s.fail(ctx, email, in.ClientIP)
	}

	// 4. Clean slate, then issue the session.
	if err := s.lockout.Clear(ctx, email); err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}

	s.record(domain.AuditEntry{
		Event:    domain.AuditLoginSucceeded,
		Actor:    user.ID,
		Role:     user.Role,
		ClientIP: in.ClientIP,
	})
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("login succeeded")

	return token, user, nil
}

// fail records one failed attempt and always yields ErrInvalidCredentials.
func (s *AuthService) fail(ctx context.Context, email, clientIP string) error {
	st, err := s.lockout.RecordFailure(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to record failed login")
		return domain.ErrInvalidCredentials
	}

	s.record(domain.AuditEntry{
		Event:    domain.AuditLoginFailed,
		Actor:    email,
		ClientIP: clientIP,
		Detail:   fmt.Sprintf("attempt %d", st.Attempts),
	})
	if st.Attempts == s.lockout.Config().MaxAttempts {
		metrics.AccountLockoutsTotal.Inc()
		s.log.Warn().
			Str("client_ip", clientIP).
			Int("attempts", st.Attempts).
			Dur("locked_for", st.RetryAfter).
			Msg("account locked after repeated failed logins")
	}
	return domain.ErrInvalidCredentials
}

// Register creates an account on behalf of an administrator.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := ratelimit.NormalizeIdentifier(in.Email)
	if email == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidCredentials
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.record(domain.AuditEntry{
		Event:    domain.AuditUserRegistered,
		Actor:    in.Actor.UserID,
		Role:     in.Actor.Role,
		Resource: domain.ResourceUsers,
		Action:   domain.ActionCreate,
		ClientIP: in.ClientIP,
		Detail:   created.ID,
	})
	return created, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"name": user.Name,
		"exp":  s.now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) record(entry domain.AuditEntry) {
	if s.audit != nil {
		s.audit.Record(entry)
	}
}
