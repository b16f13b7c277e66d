package log

// Noop is a Logger that discards every message.
type Noop struct{}

// NewNoop creates a logger that discards all output.
func NewNoop() Noop { return Noop{} }

func (Noop) Debug(msg string, fields ...Field) {}
func (Noop) Info(msg string, fields ...Field)  {}
func (Noop) Warn(msg string, fields ...Field)  {}
func (Noop) Error(msg string, fields ...Field) {}

// With returns the no-op logger unchanged.
func (n Noop) With(fields ...Field) Logger { return n }
