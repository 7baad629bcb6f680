// Package tailsrc feeds the shipper from a followed file, so an existing
// log file can be relayed without touching the program that writes it.
package tailsrc

import (
	"context"
	"io"

	"github.com/hpcloud/tail"

	"github.com/linetap/linetap/pkg/log"
)

// Follow tails the file at path and invokes emit for every new line until
// ctx is cancelled. The file is re-opened across rotation. When fromStart
// is false, reading begins at the current end of the file so only new
// lines are shipped.
//
// Read errors on individual lines are logged and skipped; only a failure
// to open the tail is returned.
func Follow(ctx context.Context, path string, fromStart bool, logger log.Logger, emit func(string)) error {
	cfg := tail.Config{
		Follow: true,
		ReOpen: true,
		Poll:   true,
		Logger: tail.DiscardingLogger,
	}
	if !fromStart {
		cfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, cfg)
	if err != nil {
		return err
	}
	defer t.Cleanup()

	logger.Info("following file", log.String("path", path))

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil

		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line == nil {
				continue
			}
			if line.Err != nil {
				logger.Warn("tail read error", log.String("path", path), log.Err(line.Err))
				continue
			}
			emit(line.Text)
		}
	}
}
