package codec

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var (
	encOnce sync.Once
	encMode cbor.EncMode
	encErr  error
)

// GetEncoder returns the shared CBOR encoding mode used for every ctl
// frame and state snapshot. Core deterministic options keep the bytes for
// a given ActionMsg or snapshot identical across daemon and client builds;
// timestamps go out as unix seconds.
func GetEncoder() (cbor.EncMode, error) {
	encOnce.Do(func() {
		opts := cbor.CoreDetEncOptions()
		opts.Time = cbor.TimeUnix
		encMode, encErr = opts.EncMode()
	})

	return encMode, encErr
}
