package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// maxLoggedBody caps how much of a request or response body reaches the log.
const maxLoggedBody = 4 << 10

const redacted = "[FILTERED]"

// report downloads are never buffered for the log
var unloggedContentTypes = []string{"application/pdf", "application/vnd.openxmlformats"}

// redactedKeys match header names and JSON keys by substring, case-insensitively.
var redactedKeys = []string{
	"password",
	"token",
	"secret",
	"authorization",
	"auth",
	"credential",
	"session",
	"api_key",
	"callback",
}

// LoggingMiddleware writes one access line per request, with secrets masked
// in headers and JSON bodies. 4xx lines are warnings, 5xx errors.
func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqBody := captureRequestBody(r)
			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Log(r.Context(), levelFor(rec.status), "http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"route", routePattern(r),
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", filterSensitiveHeaders(r.Header),
				"request_body", filterSensitiveBody(reqBody),
				"status_code", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rec.size,
				"response_body", rec.loggedBody(),
			)
		})
	}
}

// captureRequestBody reads the body for the log and puts it back intact for
// the handler.
func captureRequestBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody || isBinary(r.Header.Get("Content-Type")) {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	if len(body) > maxLoggedBody {
		return body[:maxLoggedBody]
	}
	return body
}

// recordingWriter keeps the status, the byte count and the head of a
// textual response.
type recordingWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
	head        bytes.Buffer
}

func (w *recordingWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	if room := maxLoggedBody - w.head.Len(); room > 0 && !isBinary(w.Header().Get("Content-Type")) {
		w.head.Write(b[:min(len(b), room)])
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *recordingWriter) loggedBody() string {
	if isBinary(w.Header().Get("Content-Type")) {
		return "[BINARY]"
	}
	return filterSensitiveBody(w.head.Bytes())
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func isSensitiveKey(name string) bool {
	name = strings.ToLower(name)
	for _, k := range redactedKeys {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	filtered := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitiveKey(name) {
			filtered[name] = redacted
			continue
		}
		filtered[name] = strings.Join(values, ", ")
	}
	return filtered
}

// filterSensitiveBody masks sensitive keys in a JSON body. A body that is not
// JSON (or was truncated) is dropped entirely if it mentions a sensitive key.
func filterSensitiveBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		if isSensitiveKey(string(body)) {
			return "[FILTERED - Contains sensitive data]"
		}
		return string(body)
	}

	out, err := json.Marshal(redact(doc))
	if err != nil {
		return "[ERROR - Failed to marshal filtered JSON]"
	}
	return string(out)
}

func redact(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			if isSensitiveKey(k) {
				t[k] = redacted
			} else {
				t[k] = redact(val)
			}
		}
	case []interface{}:
		for i := range t {
			t[i] = redact(t[i])
		}
	}
	return v
}

func isBinary(contentType string) bool {
	for _, t := range unloggedContentTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}
