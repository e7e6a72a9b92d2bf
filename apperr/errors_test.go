package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusAndCode(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		err    *Error
		status int
		code   string
	}{
		{Validation("bad userId", cause), http.StatusBadRequest, "VALIDATION_ERROR"},
		{Internal("store", cause), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{Upstream("news", cause), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{&Error{Message: "?"}, http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.StatusCode(), tt.code)
		assert.Equal(t, tt.code, tt.err.Code())
		if tt.err.Err != nil {
			assert.ErrorIs(t, tt.err, tt.err.Err)
		}
	}
}

func TestFrom(t *testing.T) {
	v := Validation("bad months", nil)
	assert.Same(t, v, From(fmt.Errorf("handler: %w", v)))

	plain := errors.New("db down")
	got := From(plain)
	assert.Equal(t, KindInternal, got.Kind)
	assert.ErrorIs(t, got, plain)
}

func TestPublicHidesInternalCause(t *testing.T) {
	assert.Equal(t,
		Response{Error: "get summary", Code: "INTERNAL_ERROR", RequestID: "rid"},
		Internal("get summary", errors.New("password in dsn")).Public("rid"))

	assert.Equal(t,
		Response{Error: "news: 401", Code: "UPSTREAM_ERROR"},
		Upstream("news", errors.New("401")).Public(""))
}
