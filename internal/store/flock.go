package store

import (
	"fmt"
	"os"
	"syscall"
)

// fileLock holds an exclusive advisory lock on a lock file. flock(2)
// locks are released automatically if the process dies, so a crashed
// writer never wedges the store.
type fileLock struct {
	f *os.File
}

// acquireLock blocks until the exclusive lock on path is held.
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return &fileLock{f: f}, nil
}

// release drops the lock and closes the file.
func (l *fileLock) release() error {
	err := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}
