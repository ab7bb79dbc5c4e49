package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileError(t *testing.T) {
	underlying := errors.New("no such file or directory")
	err := NewFileError(ErrorTypeIO, "src/lib.rs", underlying)

	assert.Equal(t, ErrorTypeIO, err.Type)
	assert.Equal(t, "src/lib.rs", err.Path)
	assert.True(t, errors.Is(err, underlying))
	assert.False(t, err.Timestamp.IsZero())
	assert.Equal(t, `io_error: src/lib.rs: no such file or directory`, err.Error())
}

func TestFileErrorWithoutUnderlying(t *testing.T) {
	err := NewFileError(ErrorTypeOversize, "big.py", nil)
	assert.Equal(t, "oversize: big.py", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestCacheCorruptError(t *testing.T) {
	underlying := errors.New("bad version tag")
	err := NewCacheCorruptError("/repo/.repomap/cache.bin", underlying)

	assert.True(t, errors.Is(err, underlying))
	assert.Contains(t, err.Error(), "cache_corrupt")
	assert.Contains(t, err.Error(), "bad version tag")
}

func TestWorkspaceDetectError(t *testing.T) {
	underlying := errors.New("no Cargo.toml or pyproject.toml found")
	err := NewWorkspaceDetectError("/repo", underlying)

	assert.True(t, errors.Is(err, underlying))
	assert.Contains(t, err.Error(), "workspace_detect_failed")
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	multi := NewMultiError([]error{err1, nil, err2, nil})
	assert.Len(t, multi.Errors, 2)
	assert.Contains(t, multi.Error(), "2 errors")

	single := NewMultiError([]error{err1})
	assert.Equal(t, "error 1", single.Error())

	empty := NewMultiError(nil)
	assert.Equal(t, "no errors", empty.Error())

	assert.Len(t, multi.Unwrap(), 2)
}
