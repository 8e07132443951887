package httputil

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "careergate/pkg/domain-errors"
)

type careerInput struct {
	Education string `json:"education" validate:"required"`
	Skills    string `json:"skills" validate:"required"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeAndValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a complete body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"education":"BSc","skills":"go"}`))
		w := httptest.NewRecorder()

		req, ok := DecodeAndValidate[careerInput](ctx, w, r, discardLogger(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "BSc", req.Education)
		assert.Equal(t, "go", req.Skills)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndValidate[careerInput](ctx, w, r, discardLogger(), "req-2")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())
	})

	t.Run("lists missing fields", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"education":"BSc"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndValidate[careerInput](ctx, w, r, discardLogger(), "req-3")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Missing required fields: skills"}`, w.Body.String())
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"unauthenticated", dErrors.New(dErrors.CodeUnauthenticated, "no header"), http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"invalid token", dErrors.New(dErrors.CodeInvalidToken, "jwt expired"), http.StatusUnauthorized, `{"error":"Invalid token"}`},
		{"forbidden", dErrors.New(dErrors.CodeForbidden, "role user"), http.StatusForbidden, `{"error":"Forbidden"}`},
		{"not provisioned hides detail", dErrors.New(dErrors.CodeNotProvisioned, "no profile row"), http.StatusForbidden, `{"error":"Forbidden"}`},
		{"unavailable is generic", dErrors.New(dErrors.CodeUnavailable, "dial tcp 10.0.0.1:5432"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
		{"foreign error is generic", io.ErrUnexpectedEOF, http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}
