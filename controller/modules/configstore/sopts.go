package configstore

import "github.com/sprinklerd/sprinklerd/controller"

const sOptsFile = "sopts.dat"

// LoadSOpts reads sopts.dat: NUM_SOPTS*160 bytes, each option a
// NUL-terminated string within its 160-byte slot, per spec.md §6.
func (s *Store) LoadSOpts() (controller.StringOptions, error) {
	var opts controller.StringOptions
	raw, err := readFileOrZeros(s.path(sOptsFile), int(controller.NumSOpts)*controller.MaxStringOptionLen)
	if err != nil {
		return opts, err
	}
	for i := range opts {
		off := i * controller.MaxStringOptionLen
		opts[i] = parseFixedString(raw[off : off+controller.MaxStringOptionLen])
	}
	return opts, nil
}

// SaveSOpts writes the vector back.
func (s *Store) SaveSOpts(opts controller.StringOptions) error {
	raw := make([]byte, int(controller.NumSOpts)*controller.MaxStringOptionLen)
	for i, v := range opts {
		off := i * controller.MaxStringOptionLen
		copy(raw[off:off+controller.MaxStringOptionLen], fixedString(v, controller.MaxStringOptionLen))
	}
	return writeFileAtomic(s.path(sOptsFile), raw)
}
