package profile

// Stopper ends a running profile and flushes its output.
type Stopper interface{ Stop() }

// Profiler selects what to profile and where to write the result.
type Profiler struct {
	// Mode is one of [Modes]. An empty or unknown mode disables profiling.
	Mode string
	// Dir is the output directory. Empty means a temporary directory
	// chosen by pkg/profile.
	Dir string
	// Quiet suppresses the start and stop messages of pkg/profile.
	Quiet bool
}

// Option modifies a [Profiler].
type Option func(Profiler) Profiler

// New returns a Profiler with opts applied.
func New(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		if opt != nil {
			p = opt(p)
		}
	}

	return p
}

// WithMode sets the profiling mode.
func WithMode(mode string) Option {
	return func(p Profiler) Profiler { p.Mode = mode; return p }
}

// WithDir sets the output directory.
func WithDir(dir string) Option {
	return func(p Profiler) Profiler { p.Dir = dir; return p }
}

// WithQuiet sets whether pkg/profile logs its own messages.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler { p.Quiet = quiet; return p }
}

// Start begins profiling. The returned Stopper is never nil, and calling
// Stop on it is always safe.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return noop{}
	}

	return start(p)
}

type noop struct{}

func (noop) Stop() {}
