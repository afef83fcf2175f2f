package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	PassportNo string      `json:"passport_no,omitempty"`
	Role       domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.TokenTTL) * time.Minute,
		now:    time.Now,
	}
}

// Issue signs a token for caller. Passengers must carry a passport number.
func (m *TokenManager) Issue(caller domain.Caller) (string, error) {
	switch caller.Role {
	case domain.RolePassenger:
		if caller.PassportNo == "" {
			return "", errors.New("passenger token needs a passport number")
		}
	case domain.RoleAdmin:
	default:
		return "", fmt.Errorf("unknown role %q", caller.Role)
	}

	now := m.now()
	claims := Claims{
		PassportNo: caller.PassportNo,
		Role:       caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.Subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenManager) Parse(tokenStr string) (domain.Caller, error) {
	if tokenStr == "" {
		return domain.Caller{}, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Caller{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	if claims.Role == domain.RolePassenger && claims.PassportNo == "" {
		return domain.Caller{}, fmt.Errorf("%w: token has no passport number", domain.ErrUnauthenticated)
	}
	if claims.Role != domain.RolePassenger && claims.Role != domain.RoleAdmin {
		return domain.Caller{}, fmt.Errorf("%w: unknown role", domain.ErrUnauthenticated)
	}

	return domain.Caller{PassportNo: claims.PassportNo, Role: claims.Role, Subject: claims.Subject}, nil
}
