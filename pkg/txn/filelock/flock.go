// Package filelock layers an OS-level advisory lock underneath the
// engine's file-presence lock scheme, narrowing (but per spec.md §9, not
// eliminating — other processes still coordinate only through the
// presence of .shared/<id> and .exclusive files) the race between reading
// the current lock holders and creating a new lock marker.
package filelock

import (
	"os"

	"golang.org/x/sys/unix"
)

// Guard holds an exclusive flock on a directory for the lifetime of a
// single locksOf-then-create sequence.
type Guard struct {
	f *os.File
}

// Acquire flocks dirPath (expected to be an existing .shared directory)
// exclusively. Never changes any file a client reads; the lock is purely
// an in-kernel coordination aid between processes racing the same table.
func Acquire(dirPath string) (*Guard, error) {
	f, err := os.Open(dirPath)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	return &Guard{f: f}, nil
}

// Release drops the flock and closes the directory handle.
func (g *Guard) Release() error {
	if g == nil || g.f == nil {
		return nil
	}
	err := unix.Flock(int(g.f.Fd()), unix.LOCK_UN)
	g.f.Close()
	return err
}
