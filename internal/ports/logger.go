package ports

// Logger is the printf-style logging surface the app layer needs. It is a
// subset of Nakama's runtime.Logger, which satisfies it directly.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
