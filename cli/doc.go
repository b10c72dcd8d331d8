// Package cli contains the command line interface of otx, the ObjectText
// parser and inspector.
//
// # Usage
//
//	otx fmt ship.otx            # canonical ObjectText
//	otx fmt json ship.otx       # JSON syntax tree
//	otx check -w rules/*.otx    # report diagnostics, rechecking on change
//	otx query 'kind == "Number" && unit == "%"' ship.otx
//	otx refs --strict -I /usr/share/otx ship.otx
//	otx repl ship.otx
//
// Sources are files or '-' for stdin. Files compressed with gzip or zstd
// are decompressed transparently.
//
// # Configuration
//
// Flags not given on the command line are read from the config block of
// the ObjectText file in the user configuration directory, then from the
// JSON file beside it. Nested blocks name flag groups:
//
//	config {
//	  max_depth = 64
//	  include [ "/usr/share/otx" ]
//	  log { level = debug; pretty = false }
//	}
//
// "otx init" writes the current settings in this form.
//
// # Search Path
//
// External references are looked up in the directory of the referring
// source, then in each --include directory, then in each directory of
// $OBJECTTEXT_PATH.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o otx .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
package cli
