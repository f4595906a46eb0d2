//go:build windows

package booking

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func withFileLock(ctx context.Context, lockPath string, fn func() error) error {
	for {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if err == nil {
			defer func() {
				_ = file.Close()
				_ = os.Remove(lockPath)
			}()
			return fn()
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("booking: open lock %s: %w", lockPath, err)
		}
		if err := waitForLock(ctx); err != nil {
			return fmt.Errorf("booking: lock %s: %w", lockPath, err)
		}
	}
}
