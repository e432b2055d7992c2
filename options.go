package arena

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xgzlucario/devarena/device"
)

// Options is the configuration of an arena.
type Options struct {
	// Device is the capability the region is requested from.
	Device device.Allocator

	// Logger receives lifecycle events. If nil, nothing is logged.
	Logger *slog.Logger

	// ShardCount is shard numbers of Sharded.
	ShardCount int
}

// DefaultOptions
var DefaultOptions = Options{
	Device:     device.Heap{},
	Logger:     nil,
	ShardCount: 16,
}

func checkOptions(options Options) error {
	if options.Device == nil {
		return fmt.Errorf("%w: nil device", ErrInvalidOptions)
	}
	return nil
}

func checkShardOptions(options Options) error {
	if err := checkOptions(options); err != nil {
		return err
	}
	if options.ShardCount <= 0 {
		return fmt.Errorf("%w: invalid shard count %d", ErrInvalidOptions, options.ShardCount)
	}
	return nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
