package middleware

import (
	"net/http"
	"time"

	"github.com/yannickabena/mboa-storefront/pkg/auth"
	"github.com/yannickabena/mboa-storefront/pkg/config"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
)

// Session guarantees every request carries a browser session id. A valid
// cookie is reused; a missing, expired or tampered one is silently replaced
// with a fresh session. The storefront is public, so there is no auth wall
// here; authentication state lives behind the session id.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			now := time.Now()

			var sessionID string
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				if claims, err := auth.ParseSessionToken(cfg, cookie.Value); err == nil {
					sessionID = claims.SessionID()
				} else if logg != nil {
					logg.Warn(ctx, "invalid session cookie, issuing a new session")
				}
			}

			if sessionID == "" {
				signed, err := auth.MintSessionToken(cfg, now, "")
				if err != nil {
					if logg != nil {
						logg.Error(ctx, "failed to mint session token", err)
					}
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				cookie := auth.NewCookie(cfg, signed, now)
				http.SetCookie(w, cookie)
				claims, err := auth.ParseSessionToken(cfg, signed)
				if err != nil {
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				sessionID = claims.SessionID()
			}

			ctx = WithSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
