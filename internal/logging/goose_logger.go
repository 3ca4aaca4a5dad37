package logging

import "github.com/pressly/goose/v3"

type JumbleLoggerGoose struct {
}

var _ goose.Logger = (*JumbleLoggerGoose)(nil)

func (j JumbleLoggerGoose) Fatalf(format string, v ...interface{}) {
	Fatalf(format, v...)
}

func (j JumbleLoggerGoose) Printf(format string, v ...interface{}) {
	Infof(format, v...)
}
