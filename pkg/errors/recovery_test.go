package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "flushTimer")
		panic("buffer map corrupted")
	}

	err := testFunc()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "flushTimer", panicErr.Operation)
	assert.Equal(t, "buffer map corrupted", panicErr.PanicValue)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Equal(t, "panic in flushTimer: buffer map corrupted", panicErr.Error())
	assert.Contains(t, panicErr.String(), "Stack trace:")
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "flushTimer")
		return nil
	}
	assert.NoError(t, testFunc())
}

func TestRecover_KeepsExistingError(t *testing.T) {
	original := fmt.Errorf("disk full")
	testFunc := func() (err error) {
		defer Recover(&err, "flush")
		err = original
		panic("after error")
	}

	err := testFunc()
	require.Error(t, err)
	assert.True(t, errors.Is(err, original))
	assert.Contains(t, err.Error(), "panic in flush: after error")
}

func TestSafeExecute(t *testing.T) {
	tests := []struct {
		name      string
		fn        func() error
		wantPanic bool
		wantErr   bool
	}{
		{name: "success", fn: func() error { return nil }},
		{name: "plain error", fn: func() error { return fmt.Errorf("boom") }, wantErr: true},
		{name: "string panic", fn: func() error { panic("boom") }, wantErr: true, wantPanic: true},
		{name: "error panic", fn: func() error { panic(fmt.Errorf("wrapped")) }, wantErr: true, wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("monitor", tt.fn)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var panicErr *PanicError
			assert.Equal(t, tt.wantPanic, errors.As(err, &panicErr))
		})
	}
}

func TestPanicErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("inner")
	pe := NewPanicError("op", cause)
	assert.True(t, errors.Is(pe, cause))
	assert.Nil(t, NewPanicError("op", 42).Unwrap())
}
