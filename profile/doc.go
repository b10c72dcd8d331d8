// Package profile wraps [github.com/pkg/profile] for optional runtime
// profiling of the otx command.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	otx --pprof-mode=cpu --pprof-dir=/tmp/otx check big.rules
//
// Without the tag, [Modes] is empty and [Profiler.Start] always returns a
// [Stopper] that does nothing.
package profile
