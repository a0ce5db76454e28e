package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_KnownTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 2*mib, mib)

	tracker.Start()
	tracker.Write(make([]byte, mib))
	tracker.Write(make([]byte, mib))
	tracker.Finish()

	assert.Equal(t, int64(2*mib), tracker.Current())
	assert.Contains(t, buf.String(), "2.0/2.0 MB (100.0%)")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestProgressTracker_UnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, -1, 0)

	tracker.Start()
	tracker.Write(make([]byte, 512))
	tracker.Finish()

	assert.Contains(t, buf.String(), "Downloading:")
	assert.NotContains(t, buf.String(), "%")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 1)

	n, err := tracker.Write([]byte("abc"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Current())
}

func TestProgressTracker_NilWriter(t *testing.T) {
	tracker := NewProgressTracker(nil, 10, 1)
	tracker.Start()
	tracker.Write([]byte("0123456789"))
	tracker.Finish()
	assert.Equal(t, int64(10), tracker.Current())
}
