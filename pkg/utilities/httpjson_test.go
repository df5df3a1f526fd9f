package utilities

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patch struct {
	Description *string `json:"description"`
}

func TestDecodeJSON(t *testing.T) {
	decode := func(body string, strict bool) (patch, error) {
		var p patch
		req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
		err := DecodeJSON(httptest.NewRecorder(), req, &p, strict)
		return p, err
	}

	p, err := decode(`{"description":"x"}`, true)
	require.NoError(t, err)
	require.NotNil(t, p.Description)
	assert.Equal(t, "x", *p.Description)

	_, err = decode(`{"description":"x","owner":"y"}`, true)
	assert.ErrorIs(t, err, ErrUnknownField)

	p, err = decode(`{"description":"x","owner":"y"}`, false)
	require.NoError(t, err)
	assert.Equal(t, "x", *p.Description)

	p, err = decode(``, true)
	require.NoError(t, err)
	assert.Nil(t, p.Description)

	_, err = decode(`{"description":`, true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownField)

	_, err = decode(`[1,2]`, true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownField)
}

func TestDecodeJSONStrictKeysAreCaseSensitive(t *testing.T) {
	for _, body := range []string{`{"Description":"x"}`, `{"DESCRIPTION":"x"}`, `{"description":"x","Owner":"y"}`} {
		t.Run(body, func(t *testing.T) {
			var p patch
			req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
			err := DecodeJSON(httptest.NewRecorder(), req, &p, true)
			assert.ErrorIs(t, err, ErrUnknownField)
			assert.Nil(t, p.Description)
		})
	}

	var p patch
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"Description":"x"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &p, false))
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, map[string]string{"ok": "yes"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":"yes"}`, rr.Body.String())
}
