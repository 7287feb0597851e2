package requestid_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agrohub/pkg/logger"
	"github.com/dmitrymomot/agrohub/pkg/requestid"
)

func serve(t *testing.T, header string) (seen string, echoed string) {
	t.Helper()
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(requestid.Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec.Header().Get(requestid.Header)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("generates id", func(t *testing.T) {
		t.Parallel()
		seen, echoed := serve(t, "")
		require.NotEmpty(t, seen)
		assert.Equal(t, seen, echoed)
	})

	t.Run("reuses valid id", func(t *testing.T) {
		t.Parallel()
		seen, echoed := serve(t, "op-run_42")
		assert.Equal(t, "op-run_42", seen)
		assert.Equal(t, "op-run_42", echoed)
	})

	for _, bad := range []string{"with space", "semi;colon", "a/b", strings.Repeat("x", 129)} {
		t.Run("replaces "+bad[:min(len(bad), 10)], func(t *testing.T) {
			t.Parallel()
			seen, echoed := serve(t, bad)
			assert.NotEqual(t, bad, seen)
			assert.Equal(t, seen, echoed)
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	assert.Empty(t, requestid.FromContext(context.Background()))
	assert.Equal(t, "abc", requestid.FromContext(requestid.WithContext(context.Background(), "abc")))
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithFormat(logger.FormatJSON),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	log.InfoContext(requestid.WithContext(context.Background(), "req-1"), "hello")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	buf.Reset()
	log.InfoContext(context.Background(), "hello")
	assert.NotContains(t, buf.String(), "request_id")
}
