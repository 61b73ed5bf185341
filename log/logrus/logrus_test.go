package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/batchload"
)

func TestLogrusLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	boom := errors.New("boom")
	l.Debug("fetch submitted", batchload.Fields{"key": "k"})
	l.Warn("fetch failed", batchload.Fields{"key": "k", "err": boom})
	l.Info("plain", nil)

	entries := hook.AllEntries()
	require.Len(t, entries, 3)

	assert.Equal(t, logrus.DebugLevel, entries[0].Level)
	assert.Equal(t, "k", entries[0].Data["key"])
	assert.Equal(t, "batchload", entries[0].Data["component"])

	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, boom, entries[1].Data[logrus.ErrorKey])
	assert.NotContains(t, entries[1].Data, "err")

	assert.Equal(t, "plain", entries[2].Message)
}
