package configstore

import "github.com/sprinklerd/sprinklerd/controller"

const nvStatusFile = "nvcon.dat"

// nvStatusRecordSize: u16 SunriseMin, u16 SunsetMin, u32 RDStopTime,
// u32 ExternalIP, u8 RebootCause, per spec.md §6.
const nvStatusRecordSize = 2 + 2 + 4 + 4 + 1

// LoadNVStatus reads nvcon.dat.
func (s *Store) LoadNVStatus() (controller.NonVolatileStatus, error) {
	var nv controller.NonVolatileStatus
	raw, err := readFileOrZeros(s.path(nvStatusFile), nvStatusRecordSize)
	if err != nil {
		return nv, err
	}
	nv.SunriseMin = le16(raw[0:2])
	nv.SunsetMin = le16(raw[2:4])
	nv.RDStopTime = int64(le32(raw[4:8]))
	nv.ExternalIP = le32(raw[8:12])
	nv.RebootCause = controller.RebootCause(raw[12])
	return nv, nil
}

// SaveNVStatus writes nvcon.dat back.
func (s *Store) SaveNVStatus(nv controller.NonVolatileStatus) error {
	raw := make([]byte, nvStatusRecordSize)
	putLe16(raw[0:2], nv.SunriseMin)
	putLe16(raw[2:4], nv.SunsetMin)
	putLe32(raw[4:8], uint32(nv.RDStopTime))
	putLe32(raw[8:12], nv.ExternalIP)
	raw[12] = byte(nv.RebootCause)
	return writeFileAtomic(s.path(nvStatusFile), raw)
}
