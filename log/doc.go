// Package log provides leveled structured logging on top of [log/slog].
//
// A [Logger] is an immutable value configured with functional options at
// creation time:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Info("parsed", slog.String("file", name), slog.Int("statements", n))
//
// The zero Logger discards everything, so library code can accept a Logger
// option and log unconditionally.
//
// In addition to the [slog] levels there is [LevelTrace], which the parser
// uses for per-statement detail.
//
// With [WithPretty] enabled (the default), text output is written without
// quoting and JSON output is indented, both styled with lipgloss when the
// output is a color terminal.
//
// Package-level functions such as [Info] and [ErrorContext] write to a
// default logger that [Config] reconfigures.
package log
