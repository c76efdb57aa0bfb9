package configstore

// NeedsFactoryReset reports whether the persisted state should be wiped
// on startup: done.dat is absent, or the persisted firmware version
// doesn't match the running build's, per spec.md §6.
func (s *Store) NeedsFactoryReset(persistedFirmwareVersion, runningFirmwareVersion uint16) bool {
	if !s.HasDoneFile() {
		return true
	}
	return persistedFirmwareVersion != runningFirmwareVersion
}
