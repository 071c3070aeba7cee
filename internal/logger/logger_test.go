package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	assert.Equal(t, "[DEBUG] test message arg\n", buf.String())
}

func TestQuietWhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("d")
	Info("i")
	Warn("w")
	Done("x")
	Section("s")

	assert.Empty(t, buf.String())
}

func TestError_AlwaysPrinted(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Error("failed %d", 3)

	assert.Equal(t, "[ERROR] failed 3\n", buf.String())
}

func TestPrefixes(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Indexing")
	Info("a")
	Warn("b")
	Done("c")

	out := buf.String()
	assert.Contains(t, out, "=== Indexing ===")
	assert.Contains(t, out, "[INFO] a\n")
	assert.Contains(t, out, "[WARN] b\n")
	assert.Contains(t, out, "[DONE] c\n")
	assert.NotContains(t, out, "\x1b[", "buffers are not terminals")
}
