package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
)

// APIKeyMiddleware guards the API with the single operator key. An empty key
// disables the check.
type APIKeyMiddleware struct {
	keyHash    string
	headerName string
}

func NewAPIKeyMiddleware(operatorKey, headerName string) *APIKeyMiddleware {
	if headerName == "" {
		headerName = "X-API-Key"
	}
	m := &APIKeyMiddleware{headerName: headerName}
	if operatorKey != "" {
		m.keyHash = HashAPIKey(operatorKey)
	}
	return m
}

func (m *APIKeyMiddleware) Enabled() bool { return m.keyHash != "" }

func (m *APIKeyMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(m.headerName)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "missing API key")
			return
		}

		// Compare hashes so the comparison length never depends on the input.
		if subtle.ConstantTimeCompare([]byte(HashAPIKey(key)), []byte(m.keyHash)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func HashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
