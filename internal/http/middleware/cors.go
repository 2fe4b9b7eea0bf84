package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/cors"
)

const corsMaxAge = 10 * 60

var (
	corsAllowHeaders  = []string{"Authorization", "Content-Type", "X-Requested-With"}
	corsAllowMethods  = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	corsExposeHeaders = []string{"X-Request-Id"}
)

// originPolicy guarda as origens do painel e do portal do representante.
// Entradas exatas são comparadas já normalizadas; "*.dominio" (com ou sem
// esquema) libera subdomínios, nunca o domínio raiz.
type originPolicy struct {
	exact    map[string]struct{}
	suffixes []originSuffix
}

type originSuffix struct {
	scheme string // vazio aceita http e https
	suffix string // ".finveiculos.com.br"
}

func newOriginPolicy(entries []string) originPolicy {
	p := originPolicy{exact: make(map[string]struct{}, len(entries))}
	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimRight(strings.TrimSpace(entry), "/"))
		if entry == "" {
			continue
		}
		scheme, host, found := strings.Cut(entry, "://")
		if !found {
			scheme, host = "", entry
		}
		if strings.HasPrefix(host, "*.") {
			p.suffixes = append(p.suffixes, originSuffix{scheme: scheme, suffix: host[1:]})
			continue
		}
		p.exact[entry] = struct{}{}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	normalized := strings.ToLower(u.Scheme + "://" + u.Host)
	if _, ok := p.exact[normalized]; ok {
		return true
	}

	host := strings.ToLower(u.Hostname())
	for _, s := range p.suffixes {
		if s.scheme != "" && s.scheme != u.Scheme {
			continue
		}
		if len(host) > len(s.suffix) && strings.HasSuffix(host, s.suffix) {
			return true
		}
	}
	return false
}

// CORS libera as origens de ALLOW_ORIGINS com credenciais, necessárias para
// o cookie de refresh. Preflight de origem não liberada volta sem cabeçalhos.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	c := cors.New(cors.Options{
		AllowOriginFunc:  policy.allows,
		AllowedMethods:   corsAllowMethods,
		AllowedHeaders:   corsAllowHeaders,
		ExposedHeaders:   corsExposeHeaders,
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	})
	return c.Handler
}
