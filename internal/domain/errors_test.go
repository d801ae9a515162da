package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"tagged transient", Transient(errors.New("boom")), ErrorKindTransient},
		{"tagged permanent", Permanent(errors.New("boom")), ErrorKindPermanent},
		{"tagged fatal", Fatal(errors.New("boom")), ErrorKindFatal},
		{"wrapped tag survives", fmt.Errorf("outer: %w", Permanent(errors.New("boom"))), ErrorKindPermanent},
		{"not found sentinel", fmt.Errorf("fetch: %w", ErrNotFound), ErrorKindPermanent},
		{"rate limit sentinel", ErrRateLimited, ErrorKindTransient},
		{"server error sentinel", ErrServerError, ErrorKindTransient},
		{"untagged defaults to transient", errors.New("mystery"), ErrorKindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestProcessErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Permanent(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "permanent")
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "transient", ErrorKindTransient.String())
	assert.Equal(t, "permanent", ErrorKindPermanent.String())
	assert.Equal(t, "fatal", ErrorKindFatal.String())
}
