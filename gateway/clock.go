package gateway

import "time"

// realClock implements coordinate.Clock over the time package, for
// production use; tests use a fake Clock instead so timeout behavior is
// deterministic.
type realClock struct{}

func (realClock) Now() time.Time                       { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
