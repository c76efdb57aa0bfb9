package configstore

import "github.com/sprinklerd/sprinklerd/controller"

const stationsFile = "stns.dat"

// stationRecordSize is name[32] | attrib[4] | type[1] | sped[...], per
// spec.md §6.
const stationRecordSize = controller.MaxStationNameLen + 4 + 1 + controller.MaxStationSpedLen

// attrib bit positions within the packed 4-byte StationAttrib, matching
// the bitfield ordering of spec.md §3.
const (
	attrBitUsesMaster1 = iota
	attrBitIgnoreSensor1
	attrBitUsesMaster2
	attrBitDisabled
	attrBitSequential
	attrBitIgnoreSensor2
	attrBitIgnoreRainDelay
	attrGroupIDShift = 7 // 4 bits, bits 7..10
)

func encodeAttrib(a controller.StationAttrib) uint32 {
	var v uint32
	setBit := func(bit int, on bool) {
		if on {
			v |= 1 << uint(bit)
		}
	}
	setBit(attrBitUsesMaster1, a.UsesMaster1)
	setBit(attrBitIgnoreSensor1, a.IgnoreSensor1)
	setBit(attrBitUsesMaster2, a.UsesMaster2)
	setBit(attrBitDisabled, a.Disabled)
	setBit(attrBitSequential, a.Sequential)
	setBit(attrBitIgnoreSensor2, a.IgnoreSensor2)
	setBit(attrBitIgnoreRainDelay, a.IgnoreRainDelay)
	v |= uint32(a.GroupID&0x0F) << attrGroupIDShift
	return v
}

func decodeAttrib(v uint32) controller.StationAttrib {
	bit := func(b int) bool { return v&(1<<uint(b)) != 0 }
	return controller.StationAttrib{
		UsesMaster1:     bit(attrBitUsesMaster1),
		IgnoreSensor1:   bit(attrBitIgnoreSensor1),
		UsesMaster2:     bit(attrBitUsesMaster2),
		Disabled:        bit(attrBitDisabled),
		Sequential:      bit(attrBitSequential),
		IgnoreSensor2:   bit(attrBitIgnoreSensor2),
		IgnoreRainDelay: bit(attrBitIgnoreRainDelay),
		GroupID:         uint8((v >> attrGroupIDShift) & 0x0F),
	}
}

// LoadStations reads nstations station records from stns.dat.
func (s *Store) LoadStations(nstations int) ([]controller.Station, error) {
	raw, err := readFileOrZeros(s.path(stationsFile), controller.MaxStations*stationRecordSize)
	if err != nil {
		return nil, err
	}
	out := make([]controller.Station, nstations)
	for sid := 0; sid < nstations; sid++ {
		off := sid * stationRecordSize
		rec := raw[off : off+stationRecordSize]
		name := parseFixedString(rec[0:controller.MaxStationNameLen])
		attrib := decodeAttrib(le32(rec[controller.MaxStationNameLen : controller.MaxStationNameLen+4]))
		typ := controller.StationType(rec[controller.MaxStationNameLen+4])
		sped := parseFixedString(rec[controller.MaxStationNameLen+5:])
		out[sid] = controller.Station{Name: name, Attrib: attrib, Type: typ, Sped: sped}
	}
	return out, nil
}

// SaveStations writes every station in stations (indexed 0..MaxStations)
// back to stns.dat, always at full MaxStations width so the file layout
// is stable across extension-board count changes.
func (s *Store) SaveStations(stations []controller.Station) error {
	raw := make([]byte, controller.MaxStations*stationRecordSize)
	for sid := 0; sid < controller.MaxStations && sid < len(stations); sid++ {
		off := sid * stationRecordSize
		rec := raw[off : off+stationRecordSize]
		copy(rec[0:controller.MaxStationNameLen], fixedString(stations[sid].Name, controller.MaxStationNameLen))
		putLe32(rec[controller.MaxStationNameLen:controller.MaxStationNameLen+4], encodeAttrib(stations[sid].Attrib))
		rec[controller.MaxStationNameLen+4] = byte(stations[sid].Type)
		copy(rec[controller.MaxStationNameLen+5:], fixedString(stations[sid].Sped, controller.MaxStationSpedLen))
	}
	return writeFileAtomic(s.path(stationsFile), raw)
}
