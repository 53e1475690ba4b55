package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

const (
	maxUsernameLength = 32
	registerAttempts  = 3
)

var (
	ErrInvalidRequest     = errors.New("invalid auth request")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrMapFull            = worldmap.ErrMapFull
)

// UserMessage is the text sent to a player for an auth failure.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUsernameTaken):
		return "Username already taken."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrInvalidRequest):
		return "Username and password are required."
	case errors.Is(err, ErrMapFull):
		return "The world is full."
	case errors.Is(err, ports.ErrConflict):
		return "Please try again."
	default:
		return "Unable to reach database."
	}
}

type RegisterRequest struct {
	Username string
	Password string
}

type RegisterResponse struct {
	SettlementID string         `json:"settlement_id"`
	Token        string         `json:"token"`
	Coordinates  worldmap.Point `json:"coordinates"`
	IssuedAt     string         `json:"issued_at"`
}

// RegisterUseCase creates an account together with its starter settlement
// on a free map cell.
type RegisterUseCase struct {
	Credentials ports.CredentialRepository
	Settlements ports.SettlementRepository
	Map         ports.MapIndex
	TxManager   ports.TxManager
	Placer      worldmap.Placer
	Log         *zap.Logger
	Now         func() time.Time
	NewID       func() string
}

func (u RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if !validUsername(req.Username) || req.Password == "" {
		return RegisterResponse{}, ErrInvalidRequest
	}
	if u.Credentials == nil || u.Settlements == nil || u.Map == nil || u.TxManager == nil {
		return RegisterResponse{}, ErrInvalidRequest
	}
	now := nowUTC(u.Now)
	newID := u.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	for i := 0; i < registerAttempts; i++ {
		if _, err := u.Credentials.GetByUsername(ctx, req.Username); err == nil {
			return RegisterResponse{}, ErrUsernameTaken
		} else if !errors.Is(err, ports.ErrNotFound) {
			return RegisterResponse{}, err
		}

		at, err := u.Placer.Place(ctx, u.Map)
		if err != nil {
			return RegisterResponse{}, fmt.Errorf("place settlement: %w", err)
		}
		token, err := randomToken(32)
		if err != nil {
			return RegisterResponse{}, err
		}
		salt, err := randomBytes(16)
		if err != nil {
			return RegisterResponse{}, err
		}
		id := newID()

		err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
			if err := u.Map.Claim(txCtx, at, id); err != nil {
				return err
			}
			if err := u.Settlements.Create(txCtx, settlement.NewSnapshot(id, req.Username, at, now)); err != nil {
				return err
			}
			return u.Credentials.Create(txCtx, ports.CredentialRecord{
				SettlementID: id,
				Username:     req.Username,
				Salt:         salt,
				Hash:         credentialHash(salt, req.Password),
				TokenHash:    TokenHash(token),
				CreatedAt:    now,
			})
		})
		if errors.Is(err, ports.ErrConflict) {
			logger(u.Log).Debug("register lost a race, retrying",
				zap.String("username", req.Username),
				zap.Int("x", at.X),
				zap.Int("y", at.Y),
			)
			continue
		}
		if err != nil {
			return RegisterResponse{}, err
		}
		logger(u.Log).Info("settlement founded",
			zap.String("settlement_id", id),
			zap.String("username", req.Username),
			zap.Int("x", at.X),
			zap.Int("y", at.Y),
		)
		return RegisterResponse{
			SettlementID: id,
			Token:        token,
			Coordinates:  at,
			IssuedAt:     now.Format(time.RFC3339),
		}, nil
	}

	return RegisterResponse{}, ports.ErrConflict
}

type LoginRequest struct {
	Username string
	Password string
}

type LoginResponse struct {
	SettlementID string `json:"settlement_id"`
	Token        string `json:"token"`
	IssuedAt     string `json:"issued_at"`
}

// LoginUseCase issues a fresh token; the previous one stops working.
type LoginUseCase struct {
	Credentials ports.CredentialRepository
	Now         func() time.Time
}

func (u LoginUseCase) Execute(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || u.Credentials == nil {
		return LoginResponse{}, ErrInvalidRequest
	}
	cred, err := u.Credentials.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return LoginResponse{}, ErrInvalidCredentials
		}
		return LoginResponse{}, err
	}
	got := credentialHash(cred.Salt, req.Password)
	if subtle.ConstantTimeCompare(got, cred.Hash) != 1 {
		return LoginResponse{}, ErrInvalidCredentials
	}

	token, err := randomToken(32)
	if err != nil {
		return LoginResponse{}, err
	}
	if err := u.Credentials.SetTokenHash(ctx, cred.SettlementID, TokenHash(token)); err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		SettlementID: cred.SettlementID,
		Token:        token,
		IssuedAt:     nowUTC(u.Now).Format(time.RFC3339),
	}, nil
}

type LogoutUseCase struct {
	Credentials ports.CredentialRepository
}

func (u LogoutUseCase) Execute(ctx context.Context, settlementID string) error {
	if strings.TrimSpace(settlementID) == "" || u.Credentials == nil {
		return ErrInvalidRequest
	}
	return u.Credentials.SetTokenHash(ctx, settlementID, "")
}

type VerifyRequest struct {
	Token string
}

// VerifyUseCase resolves a bearer token to the settlement it was issued for.
type VerifyUseCase struct {
	Credentials ports.CredentialRepository
}

func (u VerifyUseCase) Execute(ctx context.Context, req VerifyRequest) (string, error) {
	token := bearerToken(req.Token)
	if token == "" || u.Credentials == nil {
		return "", ErrInvalidRequest
	}
	cred, err := u.Credentials.GetByTokenHash(ctx, TokenHash(token))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	return cred.SettlementID, nil
}

// TokenHash is the form in which tokens are stored and looked up.
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// bearerToken accepts either a raw token or an Authorization header value.
func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	scheme, rest, ok := strings.Cut(v, " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	if strings.EqualFold(v, "Bearer") {
		return ""
	}
	return v
}

func validUsername(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > 0 && n <= maxUsernameLength
}

// credentialHash stretches password with argon2id. Changing the parameters
// invalidates every stored hash.
func credentialHash(salt []byte, password string) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 19*1024, 1, 32)
}

func nowUTC(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func randomToken(n int) (string, error) {
	b, err := randomBytes(n)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
