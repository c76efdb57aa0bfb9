package configstore

import "github.com/sprinklerd/sprinklerd/controller"

const iOptsFile = "iopts.dat"

// LoadIOpts reads iopts.dat: NUM_IOPTS bytes, one per integer option, in
// enum order, per spec.md §6. A missing or short file reads as zeros.
func (s *Store) LoadIOpts() (controller.IntegerOptions, error) {
	var opts controller.IntegerOptions
	raw, err := readFileOrZeros(s.path(iOptsFile), int(controller.NumIOpts))
	if err != nil {
		return opts, err
	}
	for i := range opts {
		opts[i] = uint16(raw[i])
	}
	return opts, nil
}

// SaveIOpts writes the vector back, one byte per option. Every option's
// declared maximum per controller.IntegerOptionMax fits in a byte; values
// are expected to have already been validated against it on write.
func (s *Store) SaveIOpts(opts controller.IntegerOptions) error {
	raw := make([]byte, controller.NumIOpts)
	for i, v := range opts {
		raw[i] = byte(v)
	}
	return writeFileAtomic(s.path(iOptsFile), raw)
}
