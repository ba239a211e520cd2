// Package timer
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A shared timer reactor. Every sleep and scheduled callback registers a
// deadline in one min-heap; the service fires what has expired either when
// driven by Run against a real clock, or when CheckExpirations is called
// explicitly (manual clocks in tests, custom event loops).
//
// Timers never fire early. Cancelling a pending timer simply drops its
// registration.
package timer
