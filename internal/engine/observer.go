package engine

import "time"

// Observer receives graph events for metrics. Implementations must be
// safe for concurrent use: overlapping loads report from their own
// goroutines.
type Observer interface {
	// SourceLoaded is called once per Source.Load. err is ErrNoLoader when
	// no loader was available, or the loader's error.
	SourceLoaded(source string, records int, elapsed time.Duration, err error)

	// IntersectionPass is called after every Display.UpdateInput.
	IntersectionPass(display string, total, selected int)
}

type nopObserver struct{}

func (nopObserver) SourceLoaded(string, int, time.Duration, error) {}
func (nopObserver) IntersectionPass(string, int, int)              {}
