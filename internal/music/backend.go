package music

import (
	"fmt"
	"runtime"
)

// Backend names accepted by New
const (
	BackendAuto        = "auto"
	BackendAppleScript = "applescript"
	BackendMPRIS       = "mpris"
)

// Options configures backend construction
type Options struct {
	// MPRISPlayer is the D-Bus name of the MPRIS player to control.
	// Empty selects the first player found on the session bus.
	MPRISPlayer string
}

// New returns the Client for the named backend
func New(backend string, opts Options) (Client, error) {
	if backend == "" || backend == BackendAuto {
		backend = defaultBackend()
	}

	switch backend {
	case BackendAppleScript:
		return NewAppleScriptClient(), nil
	case BackendMPRIS:
		return NewMPRISClient(opts.MPRISPlayer)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func defaultBackend() string {
	if runtime.GOOS == "darwin" {
		return BackendAppleScript
	}
	return BackendMPRIS
}
