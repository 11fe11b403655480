package logging

// MockLogger captures log entries for verification in tests.
type MockLogger struct {
	Entries       []LogEntry
	pendingError  error
	pendingFields []Field
}

// LogEntry is a single log entry captured by MockLogger.
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
	Error   error
}

func (m *MockLogger) record(level, msg string, fields []Field) {
	allFields := append(append([]Field{}, m.pendingFields...), fields...)
	m.Entries = append(m.Entries, LogEntry{
		Level:   level,
		Message: msg,
		Fields:  allFields,
		Error:   m.pendingError,
	})
}

func (m *MockLogger) Debug(msg string, fields ...Field) { m.record("DEBUG", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...Field)  { m.record("INFO", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...Field)  { m.record("WARN", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...Field) { m.record("ERROR", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...Field) { m.record("FATAL", msg, fields) }

// WithError attaches an error to subsequent entries.
func (m *MockLogger) WithError(err error) Logger {
	return &MockLogger{
		Entries:       m.Entries,
		pendingError:  err,
		pendingFields: m.pendingFields,
	}
}

// WithField attaches a field to subsequent entries.
func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m.WithFields(Field{Key: key, Value: value})
}

// WithFields attaches fields to subsequent entries.
func (m *MockLogger) WithFields(fields ...Field) Logger {
	return &MockLogger{
		Entries:       m.Entries,
		pendingError:  m.pendingError,
		pendingFields: append(append([]Field{}, m.pendingFields...), fields...),
	}
}

// HasMessage reports whether any captured entry has the given message.
func (m *MockLogger) HasMessage(msg string) bool {
	for _, e := range m.Entries {
		if e.Message == msg {
			return true
		}
	}
	return false
}
