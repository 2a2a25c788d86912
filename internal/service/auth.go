package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/deppfellow/storeops/internal/config"
	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errs.NewUnauthorizedError("invalid credentials", true)

// dummyHash keeps the cost of a failed login constant whether or not the
// username exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("storeops-dummy-password"), bcrypt.DefaultCost)

// Claims is the payload of a locally issued access token.
type Claims struct {
	Role    model.Role `json:"role"`
	StoreID *int64     `json:"store_id"`
	jwt.RegisteredClaims
}

type AuthService struct {
	server *server.Server
	repos  *repository.Repositories
	now    func() time.Time
}

func NewAuthService(s *server.Server, repos *repository.Repositories) *AuthService {
	if s.Config.Auth.Provider == config.AuthProviderClerk {
		clerk.SetKey(s.Config.Auth.ClerkSecretKey)
	}
	return &AuthService{
		server: s,
		repos:  repos,
		now:    time.Now,
	}
}

// HashPassword bcrypt-hashes a plain-text password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Login verifies credentials and issues an access token. Unknown users,
// inactive users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, p *model.LoginPayload) (*model.LoginResponse, error) {
	user, err := s.repos.User.GetByUsername(ctx, p.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(p.Password))
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(p.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	if !user.Active {
		return nil, errInvalidCredentials
	}

	token, expires, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	s.server.Logger.Info().
		Int64("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("user logged in")

	return &model.LoginResponse{
		Token:     token,
		ExpiresAt: expires.Unix(),
		User:      user,
	}, nil
}

// IssueToken signs an HS256 token for u.
func (s *AuthService) IssueToken(u *model.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.server.Config.Auth.TokenTTL)

	claims := Claims{
		Role:    u.Role,
		StoreID: u.StoreID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Issuer:    "storeops",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.server.Config.Auth.SecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return token, expires, nil
}

// ParseToken validates a locally issued token and returns the user id it names.
func (s *AuthService) ParseToken(raw string) (int64, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(s.server.Config.Auth.SecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, errs.NewUnauthorizedError("Unauthorized", false)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errs.NewUnauthorizedError("Unauthorized", false)
	}
	return userID, nil
}

// Authenticate loads the principal behind a token subject. Role and store are
// read fresh so changes apply without re-login; deactivated users are rejected.
func (s *AuthService) Authenticate(ctx context.Context, userID int64) (*model.Principal, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	return s.principal(user, err)
}

// AuthenticateExternal resolves a Clerk user id to an employee.
func (s *AuthService) AuthenticateExternal(ctx context.Context, externalID string) (*model.Principal, error) {
	user, err := s.repos.User.GetByExternalID(ctx, externalID)
	return s.principal(user, err)
}

func (s *AuthService) principal(user *model.User, err error) (*model.Principal, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NewUnauthorizedError("Unauthorized", false)
		}
		return nil, err
	}
	if !user.Active {
		return nil, errs.NewUnauthorizedError("Account is deactivated", true)
	}
	return user.Principal(), nil
}

func (s *AuthService) Me(ctx context.Context, p *model.Principal) (*model.User, error) {
	return s.repos.User.GetByID(ctx, p.UserID)
}

func (s *AuthService) ChangePassword(ctx context.Context, p *model.Principal, payload *model.ChangePasswordPayload) error {
	user, err := s.repos.User.GetByID(ctx, p.UserID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.OldPassword)); err != nil {
		code := "INVALID_PASSWORD"
		return errs.NewBadRequestError("Current password is incorrect", true, &code, nil, nil)
	}

	hash, err := HashPassword(payload.NewPassword)
	if err != nil {
		return err
	}
	return s.repos.User.UpdatePassword(ctx, user.ID, hash, s.now().UTC())
}
