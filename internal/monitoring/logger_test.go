package monitoring

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("batch %d committed", 7)
	assert.Equal(t, []string{"batch 7 committed"}, got)

	SetLogger(nil)
	assert.NotPanics(t, func() { Logf("dropped") })
	assert.Len(t, got, 1, "no-op logger must not reach the previous one")
}

func TestLogf_Default(t *testing.T) {
	assert.NotNil(t, Logf)
	assert.NotPanics(t, func() { Logf("test message: %s", "value") })
}

func TestSetOutput(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var buf bytes.Buffer
	SetOutput(&buf, "[slamreplay] ")
	Logf("dropped %d samples", 3)
	assert.True(t, strings.HasPrefix(buf.String(), "[slamreplay] "))
	assert.Contains(t, buf.String(), "dropped 3 samples")

	buf.Reset()
	SetOutput(nil, "[slamreplay] ")
	Logf("muted")
	assert.Empty(t, buf.String())
}
