// File: rawlock/rawlock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package rawlock

import (
	"fmt"
	"strings"

	"github.com/momentics/hioload-async/api"
)

// Kind selects a RawLock implementation.
type Kind int

const (
	KindOS Kind = iota
	KindSpin
	KindNoop
	KindDeadlock
)

func (k Kind) String() string {
	switch k {
	case KindSpin:
		return "spin"
	case KindNoop:
		return "noop"
	case KindDeadlock:
		return "deadlock"
	default:
		return "os"
	}
}

// ParseKind maps a configuration string onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "os", "mutex":
		return KindOS, nil
	case "spin", "spinlock":
		return KindSpin, nil
	case "noop", "local", "none":
		return KindNoop, nil
	case "deadlock", "debug":
		return KindDeadlock, nil
	}
	return KindOS, fmt.Errorf("rawlock: unknown kind %q: %w", s, api.ErrInvalidArgument)
}

// New creates a lock of kind k.
func New(k Kind) api.RawLock {
	switch k {
	case KindSpin:
		return &Spin{}
	case KindNoop:
		return Noop{}
	case KindDeadlock:
		return &Deadlock{}
	default:
		return &OS{}
	}
}

// Factory returns an api.LockFactory producing locks of kind k.
func Factory(k Kind) api.LockFactory {
	return func() api.RawLock { return New(k) }
}

// Default is the factory used when a primitive is built without options.
var Default api.LockFactory = Factory(KindOS)
