package admin

import (
	"sync/atomic"

	"portico-hq/portico/pkg/convert"
)

// Settings holds configuration that can be adjusted while the service
// runs. Reads are lock-free so the request path can consult them per
// request.
type Settings struct {
	compression atomic.Value // convert.Mode
}

// NewSettings seeds the runtime settings from the loaded configuration.
func NewSettings(mode convert.Mode) *Settings {
	s := &Settings{}
	s.compression.Store(mode)
	return s
}

// CompressionMode returns the active tool-compression mode.
func (s *Settings) CompressionMode() convert.Mode {
	return s.compression.Load().(convert.Mode)
}

// SetCompressionMode switches the tool-compression mode.
func (s *Settings) SetCompressionMode(m convert.Mode) {
	s.compression.Store(m)
}
