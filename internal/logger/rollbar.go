package logger

import (
	"context"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/waste3d/edemy-api/internal/domain"
)

type RollbarLogger struct {
	std *StdLogger
}

var _ Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, token, env string) *RollbarLogger {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetServerRoot("github.com/waste3d/edemy-api")
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: NewStdLogger(std)}
}

func (l RollbarLogger) Enable(enabled bool) { rollbar.SetEnabled(enabled) }

// Close flushes queued items.
func (l RollbarLogger) Close() { rollbar.Close() }

// prepare turns an Identity argument into a person context attached to this
// item only and keeps the other arguments.
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var personSet bool
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, msg)
	for _, arg := range args {
		if id, ok := arg.(domain.Identity); ok {
			if !personSet && id.UserID != "" {
				out = append(out, rollbar.NewPersonContext(context.Background(), &rollbar.Person{
					Id:       id.UserID,
					Username: id.Name,
					Email:    id.Email,
				}))
				personSet = true
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.std.Debug(msg, args...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.std.Info(msg, args...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.std.Warn(msg, args...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.std.Error(msg, args...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	rollbar.Wait()
	l.std.Fatal(msg, args...)
}

// New picks the rollbar backend when a token is configured.
func New(token, env string) Logger {
	if token == "" {
		return NewStdLogger(nil)
	}
	return NewRollbarLogger(nil, token, env)
}
