package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

type sessionContextKey struct{}

// SessionFromContext returns the Session injected by [Inject].
func SessionFromContext(ctx context.Context) (*goSession.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*goSession.Session)
	return sess, ok
}

// Inject enhances every request with a resolved *goSession.Session,
// reachable via [SessionFromContext]. The inbound token is taken from the
// Authorization header when present, falling back to the configured cookie;
// a request with neither proceeds Anonymous. Engine failures map to a 500.
//
// Tokens minted by LogIn inside downstream handlers are delivered back as
// an `Authorization: bearer <token>` response header plus the configured
// cookie.
func Inject(mgr *goSession.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mgr == nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			cfg := mgr.Config()

			ctx := goSession.WithClientIP(r.Context(), clientIP(r))
			ctx = goSession.WithUserAgent(ctx, r.UserAgent())

			sess := mgr.Session().WithTransport(&headerCookieTransport{
				w:      w,
				cookie: cfg.Cookie,
			})

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				token = cookieToken(r, cfg.Cookie.Name)
			}

			if err := sess.Resolve(ctx, token); err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			ctx = context.WithValue(ctx, sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate rejects requests whose session is not authenticated. Must be
// mounted downstream of [Inject].
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok || !sess.Authenticated() {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// headerCookieTransport implements goSession.TokenTransport over one
// response.
type headerCookieTransport struct {
	w      http.ResponseWriter
	cookie goSession.CookieConfig
}

func (t *headerCookieTransport) DeliverToken(token string) {
	t.w.Header().Set("Authorization", "bearer "+token)
	http.SetCookie(t.w, &http.Cookie{
		Name:     t.cookie.Name,
		Value:    token,
		Path:     t.cookie.Path,
		HttpOnly: t.cookie.HTTPOnly,
		Secure:   t.cookie.Secure,
		SameSite: t.cookie.SameSite,
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) <= len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func cookieToken(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
