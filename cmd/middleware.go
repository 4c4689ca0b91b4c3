package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/core"
	"github.com/siahsang/conduit/internal/web"
)

const maxRequestIDLength = 64

// requestID tags the request with the caller's X-Request-ID, or a fresh one,
// and echoes it back on the response.
func (app *application) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(web.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		w.Header().Set(web.RequestIDHeader, id)
		next.ServeHTTP(w, web.AddValueToContext(r, web.RequestIDCtxKey, id))
	})
}

func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorization := r.Header.Get("Authorization")
		if authorization == "" {
			next.ServeHTTP(w, r)
			return
		}

		authorizationParts := strings.Split(authorization, " ")
		if len(authorizationParts) != 2 || authorizationParts[0] != "Token" {
			app.invalidAuthenticationTokenResponse(w, r, xerrors.New("Authentication header must be in the format 'Token <token>'"))
			return
		}

		token := authorizationParts[1]
		claim, err := app.auth.ParseToken(token)
		if err != nil {
			app.invalidAuthenticationTokenResponse(w, r, err)
			return
		}

		userID, err := claim.UserID()
		if err != nil {
			app.invalidAuthenticationTokenResponse(w, r, err)
			return
		}

		user, err := app.core.GetUserByID(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, core.NoRecordFound):
				app.invalidAuthenticationTokenResponse(w, r, err)
			default:
				app.internalErrorResponse(w, r, err)
			}
			return
		}

		user.Token = token
		r = app.auth.SetAuthenticatedUser(r, user)

		next.ServeHTTP(w, r)
	})
}

func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.auth.IsUserAuthenticated(r) {
			app.authenticationRequiredResponse(w, r)
			return
		}
		next(w, r)
	}
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.internalErrorResponse(w, r, xerrors.New(fmt.Sprintf("panic: %v", err)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// instrument logs every request and records it under route, the registered
// pattern rather than the raw path, to keep metric cardinality bounded. Panics
// are recovered inside it so they are counted as 500s.
func (app *application) instrument(route string, next http.Handler) http.Handler {
	next = app.recoverPanic(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		app.metrics.RecordRequest(r.Method, route, m.Code, m.Duration)
		app.logger.Info("Request handled",
			"request_id", web.RequestID(r),
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", m.Code,
			"duration", m.Duration,
			"bytes", m.Written)
	})
}

// rateLimit must sit outside authenticate so rejected requests never reach the database.
func (app *application) rateLimit(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		if !app.limiter.Allow(clientIP(r, app.config.Limiter.TrustedProxies)) {
			app.metrics.RecordRateLimited(route)
			app.rateLimitExceededResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP keys a request by its peer address. X-Forwarded-For is only read when
// the peer is a trusted proxy; it is then walked right to left and the first hop
// that is not itself a trusted proxy is the client.
func clientIP(r *http.Request, trustedProxies []netip.Prefix) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	peer, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}
	peer = peer.Unmap()
	if !isTrustedProxy(peer, trustedProxies) {
		return peer.String()
	}

	client := peer
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		client = hop.Unmap()
		if !isTrustedProxy(client, trustedProxies) {
			break
		}
	}
	return client.String()
}

func isTrustedProxy(addr netip.Addr, trustedProxies []netip.Prefix) bool {
	for _, prefix := range trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
