package httpapi

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"gudangku/backend/internal/domain"
	"gudangku/backend/internal/ledger"
)

// AuthManager issues and verifies access tokens for employees and dealers.
// Credentials live in the ledger's catalogs, so accounts added through the
// API are picked up on the next login without any separate user store.
type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	ledger   *ledger.Ledger
}

type inventoryCustomClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, ldg *ledger.Ledger) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		ledger:   ldg,
	}
}

// Login checks the id against employees first, then dealers. Both roles use
// the passcode stored on their catalog record.
func (a *AuthManager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}

	state := a.ledger.Snapshot()

	var (
		stored   string
		name     string
		role     string
		employee domain.Employee
		dealer   domain.Dealer
	)
	for _, candidate := range state.Employees {
		if candidate.ID == id {
			employee = candidate
			stored = candidate.Passcode
			name = candidate.Name
			role = domain.RoleEmployee
			break
		}
	}
	if role == "" {
		for _, candidate := range state.Dealers {
			if candidate.ID == id {
				dealer = candidate
				stored = candidate.Passcode
				name = candidate.Name
				role = domain.RoleDealer
				break
			}
		}
	}
	if role == "" {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}

	if !verifyPasscode(stored, req.Passcode) {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}

	// Records seeded with plain passcodes get rehashed on first successful
	// login so credentials are bcrypt at rest from then on.
	if !isPasscodeHash(stored) {
		if hashed, err := HashPasscode(req.Passcode); err == nil {
			var upgradeErr error
			switch role {
			case domain.RoleEmployee:
				employee.Passcode = hashed
				upgradeErr = a.ledger.UpdateEmployee(context.Background(), id, employee)
			case domain.RoleDealer:
				dealer.Passcode = hashed
				upgradeErr = a.ledger.UpdateDealer(context.Background(), id, dealer)
			}
			if upgradeErr != nil {
				log.Printf("[auth] passcode upgrade failed for %s: %v", id, upgradeErr)
			}
		}
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(id, name, role, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        role,
		Name:        name,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &inventoryCustomClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{ID: sub, Name: claims.Name, Role: claims.Role}, nil
}

func (a *AuthManager) sign(id, name, role string, expiresAt time.Time) (string, error) {
	claims := inventoryCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "gudangku",
		},
		Role: role,
		Name: name,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// verifyPasscode accepts a bcrypt hash or, for records seeded before hashing
// was introduced, the plain passcode itself.
func verifyPasscode(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" {
		return false
	}
	if isPasscodeHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
	}
	return stored == input
}

// ensureHashedPasscode hashes a plain passcode for storage; values that are
// already bcrypt hashes pass through unchanged.
func ensureHashedPasscode(passcode string) (string, error) {
	if passcode == "" || isPasscodeHash(passcode) {
		return passcode, nil
	}
	return HashPasscode(passcode)
}

func HashPasscode(passcode string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasscodeHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}
