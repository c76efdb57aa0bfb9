package configstore

import "os"

const doneFile = "done.dat"

// HasDoneFile reports whether done.dat exists. Its absence, or a
// firmware-version mismatch, triggers a factory reset per spec.md §6.
func (s *Store) HasDoneFile() bool {
	_, err := os.Stat(s.path(doneFile))
	return err == nil
}

// WriteDoneFile marks first-run setup complete.
func (s *Store) WriteDoneFile() error {
	return writeFileAtomic(s.path(doneFile), []byte{1})
}
