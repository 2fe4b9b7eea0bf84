package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/admin"
	"github.com/finveiculos/painel-representantes/internal/auth"
	"github.com/finveiculos/painel-representantes/internal/representative"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada ou sem acesso.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

type adminStore interface {
	GetByEmail(ctx context.Context, email string) (*admin.Administrator, error)
	GetByID(ctx context.Context, id uuid.UUID) (*admin.Administrator, error)
	RecordLogin(ctx context.Context, id uuid.UUID) error
}

type representativeAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*representative.Representative, error)
	GetRepresentative(ctx context.Context, id uuid.UUID) (*representative.Representative, error)
	ResolveLoginDestination(ctx context.Context, rep *representative.Representative) (representative.Destination, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	admins     adminStore
	reps       representativeAuthenticator
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(admins *admin.Repository, reps *representative.Service, redisClient *redis.Client, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{admins: admins, reps: reps, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações. Sem tokens quando
// Destination é access_denied.
type LoginResult struct {
	Audience      string
	AccessToken   string
	AccessExpiry  time.Time
	RefreshToken  string
	Subject       uuid.UUID
	Roles         []string
	Profile       any
	Destination   representative.Destination
	RefreshExpiry time.Time
}

// LoginAdmin autentica administradores do painel.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*LoginResult, error) {
	adm, err := s.admins.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, admin.ErrNotFound) {
			log.Warn().Msg("login admin: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, adm.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Msg("login admin: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Msg("login admin: senha inválida")
		return nil, ErrInvalidCredentials
	}
	if !adm.Active {
		return nil, ErrAccountDisabled
	}

	if err := s.admins.RecordLogin(ctx, adm.ID); err != nil {
		log.Warn().Err(err).Str("admin_id", adm.ID.String()).Msg("login admin: falha ao registrar acesso")
	}

	return s.issue(ctx, adm.ID, auth.AudienceAdmin, []string{auth.RoleAdmin}, adm)
}

// LoginRepresentative autentica o representante e informa o destino do login.
func (s *AuthService) LoginRepresentative(ctx context.Context, email, password string) (*LoginResult, error) {
	rep, err := s.reps.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, representative.ErrInvalidCredentials) {
			log.Warn().Msg("login representante: credenciais inválidas")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	dest, err := s.reps.ResolveLoginDestination(ctx, rep)
	if err != nil {
		return nil, err
	}
	if dest == representative.DestinationAccessDenied {
		log.Info().Str("representative_id", rep.ID.String()).Str("status", string(rep.Status)).Msg("login representante: acesso negado")
		return &LoginResult{Audience: auth.AudienceRepresentative, Subject: rep.ID, Destination: dest}, nil
	}

	// a promoção pode ter mudado o status
	if current, err := s.reps.GetRepresentative(ctx, rep.ID); err == nil {
		rep = current
	}

	result, err := s.issue(ctx, rep.ID, auth.AudienceRepresentative, []string{auth.RoleRepresentative}, rep)
	if err != nil {
		return nil, err
	}
	result.Destination = dest
	return result, nil
}

// Refresh troca um refresh token válido por um novo par de tokens.
func (s *AuthService) Refresh(ctx context.Context, audience, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	redisKey := auth.RefreshRedisKey(audience, hash)
	// GetDel consome o token: entre dois refresh concorrentes só um o encontra.
	value, err := s.redis.GetDel(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}

	subject, storedAudience, err := auth.DecodeRefreshValue(value)
	if err != nil || storedAudience != audience {
		return nil, ErrRefreshInvalid
	}

	var result *LoginResult
	switch audience {
	case auth.AudienceAdmin:
		adm, err := s.admins.GetByID(ctx, subject)
		if err != nil {
			if errors.Is(err, admin.ErrNotFound) {
				return nil, ErrRefreshInvalid
			}
			return nil, err
		}
		if !adm.Active {
			return nil, ErrAccountDisabled
		}
		result, err = s.issue(ctx, adm.ID, audience, []string{auth.RoleAdmin}, adm)
		if err != nil {
			return nil, err
		}
	case auth.AudienceRepresentative:
		rep, err := s.reps.GetRepresentative(ctx, subject)
		if err != nil {
			if errors.Is(err, representative.ErrNotFound) {
				return nil, ErrRefreshInvalid
			}
			return nil, err
		}
		dest, err := s.reps.ResolveLoginDestination(ctx, rep)
		if err != nil {
			return nil, err
		}
		if dest == representative.DestinationAccessDenied {
			return nil, ErrAccountDisabled
		}
		result, err = s.issue(ctx, rep.ID, audience, []string{auth.RoleRepresentative}, rep)
		if err != nil {
			return nil, err
		}
		result.Destination = dest
	default:
		return nil, ErrRefreshInvalid
	}

	return result, nil
}

// Logout revoga o refresh token informado.
func (s *AuthService) Logout(ctx context.Context, audience, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.redis.Del(ctx, auth.RefreshRedisKey(audience, hash)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, subject uuid.UUID, audience string, roles []string, profile any) (*LoginResult, error) {
	access, err := s.jwt.Issue(auth.Session{Subject: subject, Audience: audience, Roles: roles})
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.refreshTTL)
	key := auth.RefreshRedisKey(audience, refreshHash)
	if err := s.redis.Set(ctx, key, auth.EncodeRefreshValue(subject, audience), s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		Audience:      audience,
		AccessToken:   access.Token,
		AccessExpiry:  access.ExpiresAt,
		RefreshToken:  rawRefresh,
		Subject:       subject,
		Roles:         roles,
		Profile:       profile,
		RefreshExpiry: expires,
	}, nil
}
