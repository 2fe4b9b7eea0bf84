package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "painel-representantes"

// Claims é o corpo do JWT de acesso. O subject é sempre um uuid e a audience
// tem um único valor: admin ou representative.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// AccessToken é o token assinado com sua validade.
type AccessToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// JWTManager emite e valida tokens de acesso de administradores e representantes.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, now: time.Now}
}

// Issue assina um token HS256 para a sessão.
func (m *JWTManager) Issue(session Session) (AccessToken, error) {
	if session.Subject == uuid.Nil || !knownAudience(session.Audience) {
		return AccessToken{}, ErrInvalidSession
	}

	now := m.now().UTC()
	expires := now.Add(m.accessTTL)
	claims := Claims{
		Roles: session.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   session.Subject.String(),
			Audience:  jwt.ClaimStrings{session.Audience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ID: claims.ID, ExpiresAt: expires}, nil
}

// ParseSession valida assinatura, emissor e expiração e devolve a sessão do
// token. Tokens sem subject uuid ou com audience desconhecida são recusados.
func (m *JWTManager) ParseSession(raw string) (Session, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, errors.New("token inválido")
	}
	return sessionFromClaims(claims)
}

func sessionFromClaims(claims *Claims) (Session, error) {
	if len(claims.Audience) != 1 || !knownAudience(claims.Audience[0]) {
		return Session{}, ErrInvalidSession
	}
	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	return Session{Subject: subject, Audience: claims.Audience[0], Roles: claims.Roles}, nil
}

func knownAudience(audience string) bool {
	return audience == AudienceAdmin || audience == AudienceRepresentative
}
