package debug

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// saveAndRestoreState saves the debug package state and returns a cleanup function
func saveAndRestoreState() func() {
	originalDebug := EnableDebug
	originalOutput := debugOutput
	return func() {
		EnableDebug = originalDebug
		debugOutput = originalOutput
	}
}

func TestIsDebugEnabled(t *testing.T) {
	defer saveAndRestoreState()()

	EnableDebug = "false"
	os.Unsetenv("DEBUG")
	assert.False(t, IsDebugEnabled())

	EnableDebug = "true"
	assert.True(t, IsDebugEnabled())

	EnableDebug = "false"
	os.Setenv("DEBUG", "1")
	defer os.Unsetenv("DEBUG")
	assert.True(t, IsDebugEnabled())
}

func TestPrintfRequiresOutput(t *testing.T) {
	defer saveAndRestoreState()()
	EnableDebug = "true"

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	Printf("found %d symbols", 3)
	assert.Contains(t, buf.String(), "[DEBUG] found 3 symbols")

	buf.Reset()
	SetDebugOutput(nil)
	Printf("should not appear")
	assert.Empty(t, buf.String())
}

func TestPrintfNoopWhenDisabled(t *testing.T) {
	defer saveAndRestoreState()()
	EnableDebug = "false"
	os.Unsetenv("DEBUG")

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	Printf("should not appear")
	assert.Empty(t, buf.String())
}

func TestComponentLoggers(t *testing.T) {
	defer saveAndRestoreState()()
	EnableDebug = "true"

	cases := []struct {
		name string
		fn   func(string, ...interface{})
		tag  string
	}{
		{"LogWalk", LogWalk, "[DEBUG:WALK]"},
		{"LogCapture", LogCapture, "[DEBUG:CAPTURE]"},
		{"LogResolve", LogResolve, "[DEBUG:RESOLVE]"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDebugOutput(&buf)
			tc.fn("processing %s", "file.rs")
			assert.True(t, strings.HasPrefix(buf.String(), tc.tag), "got %q", buf.String())
		})
	}
}

func TestFatalReturnsErrorAndLogs(t *testing.T) {
	defer saveAndRestoreState()()
	EnableDebug = "true"

	var buf bytes.Buffer
	SetDebugOutput(&buf)

	err := Fatal("cache blob unreadable: %s", "corrupt")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cache blob unreadable: corrupt")
	assert.Contains(t, buf.String(), "[FATAL]")
}

func TestInitAndCloseDebugLogFile(t *testing.T) {
	defer saveAndRestoreState()()

	path, err := InitDebugLogFile()
	assert.NoError(t, err)
	assert.FileExists(t, path)

	assert.NoError(t, CloseDebugLog())
	os.Remove(path)
}
