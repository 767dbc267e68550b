package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"autoparts/internal/cache"
	"autoparts/internal/logger"

	"go.uber.org/zap"
)

// IdempotencyHeader carries the client-chosen request key
const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore persists replayable responses
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

type idempotencyRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key with the same body, and rejects the key with 409 when the
// body differs. Requests without the header pass through untouched. Only 2xx
// responses are stored so a failed attempt can be retried.
func Idempotency(store IdempotencyStore, ttl time.Duration, onReplay func(), log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if store == nil || idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqLogger := logger.FromContext(r.Context(), log)

			body, err := io.ReadAll(r.Body)
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, "could not read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(buildScope(r), idempotencyKey)

			stored, err := store.Get(r.Context(), key)
			switch {
			case err == nil:
				var record idempotencyRecord
				if err := json.Unmarshal([]byte(stored), &record); err != nil {
					reqLogger.Error("Failed to decode idempotency record", zap.Error(err))
					break
				}
				if record.RequestHash != requestHash {
					RespondWithError(w, http.StatusConflict, "idempotency key reused with a different request body")
					return
				}
				if onReplay != nil {
					onReplay()
				}
				writeStoredResponse(w, &record)
				return
			case !errors.Is(err, cache.ErrMiss):
				// the store is an optimisation; serve the request without it
				reqLogger.Warn("Idempotency lookup failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := defaultStatus(rec.status)
			if status < 200 || status >= 300 {
				return
			}

			payload, err := json.Marshal(idempotencyRecord{
				Status:      status,
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				ContentType: rec.Header().Get("Content-Type"),
				RequestHash: requestHash,
			})
			if err != nil {
				reqLogger.Error("Failed to encode idempotency record", zap.Error(err))
				return
			}
			if _, err := store.SetNX(r.Context(), key, string(payload), ttl); err != nil {
				reqLogger.Warn("Failed to persist idempotency record", zap.Error(err))
			}
		})
	}
}

func buildScope(r *http.Request) string {
	userID, _ := GetUserID(r.Context())
	return strings.Join([]string{userID, r.Method, r.URL.Path}, "|")
}

func writeStoredResponse(w http.ResponseWriter, record *idempotencyRecord) {
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func defaultStatus(value int) int {
	if value == 0 {
		return http.StatusOK
	}
	return value
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
