package report

import "fmt"

// ProgressFunc receives human-readable progress messages. A nil ProgressFunc
// discards them.
type ProgressFunc func(message string)

// Send formats and delivers a progress message
func (p ProgressFunc) Send(format string, args ...interface{}) {
	if p == nil {
		return
	}
	p(fmt.Sprintf(format, args...))
}
