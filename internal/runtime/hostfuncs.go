package runtime

import (
	"context"
	"log/slog"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/ericsoft/obfmap"
)

// makeStripPrefixFn exposes obfmap.StripPrefix: strip_prefix("  at a.b()")
// returns "a.b()".
func makeStripPrefixFn() *object.Builtin {
	return object.NewBuiltin("strip_prefix", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("strip_prefix", 1, len(args))
		}
		s, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("strip_prefix: expected string, got %s", args[0].Type())
		}
		return object.NewString(obfmap.StripPrefix(s.Value()))
	})
}

// makeTrimLocationFn drops the source location that .NET and Unity append to
// a stack frame.
func makeTrimLocationFn() *object.Builtin {
	return object.NewBuiltin("trim_location", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("trim_location", 1, len(args))
		}
		s, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("trim_location: expected string, got %s", args[0].Type())
		}
		return object.NewString(trimLocation(s.Value()))
	})
}

// trimLocation cuts a frame after the parameter list that follows the
// method name, removing " in File.cs:line 12", " [0x00012] in <hash>:0" and
// " (at Assets/File.cs:12)" suffixes. Frames without a parameter list only
// lose a Unity "(at ...)" suffix.
func trimLocation(s string) string {
	if i := strings.Index(s, " (at "); i >= 0 {
		s = s[:i]
	}
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return strings.TrimRight(s, " \t")
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return s
}

func makeReplaceAllFn() *object.Builtin {
	return object.NewBuiltin("replace_all", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("replace_all", 3, len(args))
		}
		var strs [3]string
		for i, a := range args {
			s, ok := a.(*object.String)
			if !ok {
				return object.Errorf("replace_all: expected string, got %s", a.Type())
			}
			strs[i] = s.Value()
		}
		return object.NewString(strings.ReplaceAll(strs[0], strs[1], strs[2]))
	})
}

// makeResolveFn lets a script look a renamed reference up while it
// rewrites. resolve(q) returns the original names joined by " | ", or nil
// when nothing matches.
func makeResolveFn(idx *obfmap.Index) *object.Builtin {
	return object.NewBuiltin("resolve", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("resolve", 1, len(args))
		}
		q, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("resolve: expected string, got %s", args[0].Type())
		}
		res := idx.Search(q.Value(), obfmap.SearchOptions{Substitute: true})
		if res.First() == nil {
			return object.Nil
		}
		return object.NewString(res.String())
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
	script string
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, slog.String("script", l.script))
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, slog.String("script", l.script))
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, slog.String("script", l.script))
}
