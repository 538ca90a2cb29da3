package debug

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTiming(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(true, &buf)

	done := Timing(logger, true, "load snapshot")
	done()
	assert.Contains(t, buf.String(), "operation=\"load snapshot\"")
	assert.Contains(t, buf.String(), "duration=")

	buf.Reset()
	Timing(logger, false, "skipped")()
	assert.Empty(t, buf.String())
}

func TestOutput(t *testing.T) {
	var buf bytes.Buffer
	Output(NewLogger(true, &buf), true, "loaded %d records", 7)
	assert.Contains(t, buf.String(), "loaded 7 records")

	buf.Reset()
	Output(NewLogger(false, &buf), true, "hidden")
	assert.Empty(t, buf.String(), "info level drops debug output")
}
