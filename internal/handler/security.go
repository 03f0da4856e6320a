package handler

import (
	"context"
	"net/http"

	"github.com/xenking/print-order/internal/domain/auth"
	"github.com/xenking/print-order/pkg/httpmiddleware"
)

type ownerKey struct{}

// Authenticate requires an "Authorization: Bearer" credential. The credential
// is kept on the request context for calls to the orders API, and its HMAC
// identifies the owner of wizard sessions. Tokens are validated by the orders
// API itself.
func Authenticate(hasher *auth.Hasher) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := httpmiddleware.BearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="print-order"`)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			cred := auth.Credential(token)
			ctx := auth.WithCredential(r.Context(), cred)
			ctx = context.WithValue(ctx, ownerKey{}, hasher.Hash(cred))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ownerFrom returns the owner hash stored by Authenticate.
func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
