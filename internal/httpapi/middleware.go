package httpapi

import (
	"context"
	"net/http"

	"github.com/guility/relrag/internal/identity"
)

type contextKey int

const identityContextKey contextKey = iota

// withIdentity resolves the bearer token, if any, and stores the result (or
// its absence) on the request context; per §6.2 an unresolved or missing
// token is anonymity, not a rejected request. Route-level checks decide
// whether an anonymous caller is acceptable.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}
		id, ok := s.verifier.Resolve(r.Context(), r.Header.Get("Authorization"))
		if ok {
			r = r.WithContext(context.WithValue(r.Context(), identityContextKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// subjectFrom returns the resolved caller's user ID, or "" for anonymous.
func subjectFrom(r *http.Request) string {
	id, ok := r.Context().Value(identityContextKey).(identity.Identity)
	if !ok {
		return ""
	}
	return id.UserID
}

// withCORS answers preflight requests and sets the Access-Control-Allow-*
// headers for configured origins, grounded on the CORS glue named as an
// ambient collaborator (§1).
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.corsOrigins) == 0 {
		return true
	}
	for _, o := range s.corsOrigins {
		if o == origin || o == "*" {
			return true
		}
	}
	return false
}
