package configstore

import "github.com/sprinklerd/sprinklerd/controller"

const programsFile = "prog.dat"

// maxProgramStartTimes bounds the fixed StartTimes slot count per record.
const maxProgramStartTimes = 4

// maxProgramNameLen bounds the variable-length trailing name field.
const maxProgramNameLen = 32

// Program record layout, per spec.md §6:
//
//	flags byte:   bit0=enabled, bit1=use_weather, bits2-3=odd_even,
//	              bit4=schedule_type
//	days[2]       weekly bitmask, or {interval, start_day} for intervals
//	nStartTimes   byte, 0..maxProgramStartTimes
//	startTimes    [maxProgramStartTimes]uint16, only the first nStartTimes valid
//	durations     [controller.MaxStations]uint16
//	nameLen       byte
//	name          nameLen bytes
//
// A count-prefixed StartTimes slot, rather than padding unused slots with
// a sentinel, avoids colliding with controller.StartTimeUnusedBit's own
// in-band "unused" encoding of a real start-time slot.
const programRecordSize = 1 + 2 + 1 + maxProgramStartTimes*2 + controller.MaxStations*2 + 1 + maxProgramNameLen

const (
	progFlagEnabled    = 1 << 0
	progFlagUseWeather = 1 << 1
	progFlagOddEvenLo  = 1 << 2
	progFlagOddEvenHi  = 1 << 3
	progFlagSchedType  = 1 << 4
)

// LoadPrograms reads prog.dat: a leading count byte followed by that many
// fixed-size records.
func (s *Store) LoadPrograms() ([]controller.Program, error) {
	raw, err := readFileOrZeros(s.path(programsFile), 1)
	if err != nil {
		return nil, err
	}
	count := int(raw[0])
	full, err := readFileOrZeros(s.path(programsFile), 1+count*programRecordSize)
	if err != nil {
		return nil, err
	}
	out := make([]controller.Program, count)
	for i := 0; i < count; i++ {
		off := 1 + i*programRecordSize
		out[i] = decodeProgramRecord(full[off : off+programRecordSize])
	}
	return out, nil
}

// SavePrograms writes the count byte and every record back.
func (s *Store) SavePrograms(programs []controller.Program) error {
	raw := make([]byte, 1+len(programs)*programRecordSize)
	raw[0] = byte(len(programs))
	for i, p := range programs {
		off := 1 + i*programRecordSize
		encodeProgramRecord(raw[off:off+programRecordSize], p)
	}
	return writeFileAtomic(s.path(programsFile), raw)
}

func encodeProgramRecord(rec []byte, p controller.Program) {
	var flags byte
	if p.Enabled {
		flags |= progFlagEnabled
	}
	if p.UseWeather {
		flags |= progFlagUseWeather
	}
	flags |= byte(p.OddEven) << 2
	flags |= byte(p.ScheduleType) << 4
	rec[0] = flags
	rec[1] = p.Days[0]
	rec[2] = p.Days[1]

	n := len(p.StartTimes)
	if n > maxProgramStartTimes {
		n = maxProgramStartTimes
	}
	rec[3] = byte(n)
	for i := 0; i < n; i++ {
		putLe16(rec[4+i*2:6+i*2], p.StartTimes[i])
	}

	durOff := 4 + maxProgramStartTimes*2
	for sid := 0; sid < controller.MaxStations; sid++ {
		putLe16(rec[durOff+sid*2:durOff+sid*2+2], p.Durations[sid])
	}

	nameOff := durOff + controller.MaxStations*2
	name := p.Name
	if len(name) > maxProgramNameLen {
		name = name[:maxProgramNameLen]
	}
	rec[nameOff] = byte(len(name))
	copy(rec[nameOff+1:], name)
}

func decodeProgramRecord(rec []byte) controller.Program {
	var p controller.Program
	flags := rec[0]
	p.Enabled = flags&progFlagEnabled != 0
	p.UseWeather = flags&progFlagUseWeather != 0
	p.OddEven = controller.OddEvenRestriction((flags >> 2) & 0x03)
	p.ScheduleType = controller.ScheduleType((flags >> 4) & 0x01)
	p.Days[0] = rec[1]
	p.Days[1] = rec[2]

	n := int(rec[3])
	if n > maxProgramStartTimes {
		n = maxProgramStartTimes
	}
	p.StartTimes = make([]uint16, n)
	for i := 0; i < n; i++ {
		p.StartTimes[i] = le16(rec[4+i*2 : 6+i*2])
	}

	durOff := 4 + maxProgramStartTimes*2
	for sid := 0; sid < controller.MaxStations; sid++ {
		p.Durations[sid] = le16(rec[durOff+sid*2 : durOff+sid*2+2])
	}

	nameOff := durOff + controller.MaxStations*2
	nameLen := int(rec[nameOff])
	if nameOff+1+nameLen > len(rec) {
		nameLen = len(rec) - nameOff - 1
	}
	p.Name = string(rec[nameOff+1 : nameOff+1+nameLen])
	return p
}
