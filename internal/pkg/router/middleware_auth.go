package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpvault/internal/pkg/jwt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// middlewareAuthentication resolves the calling company from its bearer
// token. Every tenant-scoped handler reads the company from these claims.
func middlewareAuthentication(verifier jwt.JWT, public map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := public[r.Method][matchedRoutePath(r)]; skip {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				slog.WarnContext(r.Context(), "rejected bearer token", "error", err)
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}
			if claims.CompanyID == "" || claims.Role == "" {
				writeJSON(w, errorResponse{Message: "Token is not bound to a company"}, http.StatusUnauthorized)
				return
			}

			trace.SpanFromContext(r.Context()).SetAttributes(
				attribute.String("otpvault.company_id", claims.CompanyID),
				attribute.String("otpvault.role", claims.Role),
			)

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
