package logger

import (
	"os"
	"syscall"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":  zapcore.DebugLevel,
		" WARN ": zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"":       zapcore.InfoLevel,
		"chatty": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestIsSyncInvalidError(t *testing.T) {
	if !isSyncInvalidError(&os.PathError{Op: "sync", Path: "/dev/stdout", Err: syscall.EINVAL}) {
		t.Fatalf("EINVAL must be ignored")
	}
	if isSyncInvalidError(&os.PathError{Op: "sync", Path: "/dev/stdout", Err: syscall.EIO}) {
		t.Fatalf("EIO must not be ignored")
	}
}
