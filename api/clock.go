// File: api/clock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Clock is a monotonic time source in nanoseconds. Values are only
// meaningful relative to each other.
type Clock interface {
	Now() int64
}
