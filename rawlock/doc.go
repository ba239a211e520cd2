// Package rawlock
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw lock implementations that guard primitive state. The same primitive
// algorithm runs over a spinlock, an OS mutex, a deadlock-detecting mutex,
// or a no-op lock for single-goroutine use.
package rawlock
