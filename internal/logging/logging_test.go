package logging

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLoggerCapturesEntries(t *testing.T) {
	m := &MockLogger{}
	m.Info("started", Field{Key: FieldFile, Value: "a.png"})
	m.Warn("slow")

	require.Len(t, m.Entries, 2)
	assert.Equal(t, "INFO", m.Entries[0].Level)
	assert.Equal(t, "started", m.Entries[0].Message)
	assert.Equal(t, FieldFile, m.Entries[0].Fields[0].Key)
	assert.True(t, m.HasMessage("slow"))
	assert.False(t, m.HasMessage("missing"))
}

func TestMockLoggerWithError(t *testing.T) {
	m := &MockLogger{}
	boom := errors.New("boom")
	child := m.WithError(boom).(*MockLogger)
	child.Error("failed")

	require.Len(t, child.Entries, 1)
	assert.Equal(t, boom, child.Entries[0].Error)
	assert.Empty(t, m.Entries, "derived loggers record independently")
}

func TestMockLoggerWithFieldsAccumulate(t *testing.T) {
	m := &MockLogger{}
	child := m.WithField("a", 1).WithField("b", 2).(*MockLogger)
	child.Info("msg", Field{Key: "c", Value: 3})

	require.Len(t, child.Entries, 1)
	require.Len(t, child.Entries[0].Fields, 3)
	assert.Equal(t, "a", child.Entries[0].Fields[0].Key)
	assert.Equal(t, "c", child.Entries[0].Fields[2].Key)
}

func TestNewLogrusAdapterLevels(t *testing.T) {
	l := NewLogrusAdapter("debug", "json")
	adapter, ok := l.(*LogrusAdapter)
	require.True(t, ok)
	assert.Equal(t, logrus.DebugLevel, adapter.logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, adapter.logger.Formatter)
}

func TestNewLogrusAdapterInvalidLevelFallsBack(t *testing.T) {
	l := NewLogrusAdapter("loud", "text")
	adapter := l.(*LogrusAdapter)
	assert.Equal(t, logrus.InfoLevel, adapter.logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, adapter.logger.Formatter)
}

func TestSetDefault(t *testing.T) {
	orig := GetLogger()
	t.Cleanup(func() { SetDefault(orig) })

	m := &MockLogger{}
	SetDefault(m)
	assert.Same(t, Logger(m), GetLogger())

	SetDefault(nil)
	assert.Same(t, Logger(m), GetLogger(), "nil is ignored")
}
