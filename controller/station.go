package controller

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// MaxExtensionBoards, MaxBoards and MaxStations bound the station address
// space, per spec.md Invariant 1: nstations = (extension_boards+1)*8 <= 200.
const (
	MaxExtensionBoards = 24
	MaxBoards          = 1 + MaxExtensionBoards
	MaxStations        = MaxBoards * 8
	StationsPerBoard    = 8
)

// StationType governs how a station's on/off command is physically
// realized, per spec.md §3.
type StationType uint8

const (
	StationStandard StationType = 0x00
	StationRF       StationType = 0x01
	StationRemote   StationType = 0x02
	StationGPIO     StationType = 0x03
	StationHTTP     StationType = 0x04
	StationOther    StationType = 0xFF
)

// StationAttrib packs the independent per-station boolean flags plus a
// reserved 4-bit group id, per spec.md §3. The on-disk layout is defined by
// configstore; in memory the flags are plain booleans.
type StationAttrib struct {
	UsesMaster1     bool
	IgnoreSensor1   bool
	UsesMaster2     bool
	Disabled        bool
	Sequential      bool
	IgnoreSensor2   bool
	IgnoreRainDelay bool
	GroupID         uint8 // 4 bits
}

// MaxStationNameLen and MaxStationSpedLen mirror
// original_source/src/defines.h's STATION_NAME_SIZE and
// STATION_SPECIAL_DATA_SIZE (TMP_BUFFER_SIZE - STATION_NAME_SIZE - 12).
const (
	MaxStationNameLen = 32
	tmpBufferSize     = 255
	MaxStationSpedLen = tmpBufferSize - MaxStationNameLen - 12
)

// Station is a single solenoid-valve output record.
type Station struct {
	Name   string
	Attrib StationAttrib
	Type   StationType
	Sped   string // raw type-interpreted payload, see Special* accessors below
}

// SpecialRF is the parsed payload of a StationRF station.
type SpecialRF struct {
	On, Off, Timing uint32
}

// ParseRF parses the three hex ASCII fields on[6] off[6] timing[4]. Timing
// of zero means invalid, per spec.md §4.3; callers must check it.
func (s Station) ParseRF() (SpecialRF, error) {
	if len(s.Sped) < 16 {
		return SpecialRF{}, fmt.Errorf("rf sped too short: %d bytes", len(s.Sped))
	}
	on, err := strconv.ParseUint(s.Sped[0:6], 16, 32)
	if err != nil {
		return SpecialRF{}, err
	}
	off, err := strconv.ParseUint(s.Sped[6:12], 16, 32)
	if err != nil {
		return SpecialRF{}, err
	}
	timing, err := strconv.ParseUint(s.Sped[12:16], 16, 32)
	if err != nil {
		return SpecialRF{}, err
	}
	return SpecialRF{On: uint32(on), Off: uint32(off), Timing: uint32(timing)}, nil
}

// SpecialRemote is the parsed payload of a StationRemote station.
type SpecialRemote struct {
	IP   [4]byte
	Port uint16
	SID  uint8
}

// ParseRemote decodes ip[8] hex, port[4] hex, sid[2] hex.
func (s Station) ParseRemote() (SpecialRemote, error) {
	if len(s.Sped) < 14 {
		return SpecialRemote{}, fmt.Errorf("remote sped too short: %d bytes", len(s.Sped))
	}
	ipBytes, err := hex.DecodeString(s.Sped[0:8])
	if err != nil {
		return SpecialRemote{}, err
	}
	port, err := strconv.ParseUint(s.Sped[8:12], 16, 16)
	if err != nil {
		return SpecialRemote{}, err
	}
	sid, err := strconv.ParseUint(s.Sped[12:14], 16, 8)
	if err != nil {
		return SpecialRemote{}, err
	}
	var r SpecialRemote
	copy(r.IP[:], ipBytes)
	r.Port = uint16(port)
	r.SID = uint8(sid)
	return r, nil
}

// SpecialGPIO is the parsed payload of a StationGPIO station.
type SpecialGPIO struct {
	Pin    int
	Active bool // active level driven on "on"
}

// ParseGPIO decodes pin[2] decimal ASCII, active[1] ('0' or '1').
func (s Station) ParseGPIO() (SpecialGPIO, error) {
	if len(s.Sped) < 3 {
		return SpecialGPIO{}, fmt.Errorf("gpio sped too short: %d bytes", len(s.Sped))
	}
	pin, err := strconv.Atoi(s.Sped[0:2])
	if err != nil {
		return SpecialGPIO{}, err
	}
	active := s.Sped[2] == '1'
	return SpecialGPIO{Pin: pin, Active: active}, nil
}

// SpecialHTTP is the parsed payload of a StationHTTP station.
type SpecialHTTP struct {
	Server, Port, OnCmd, OffCmd string
}

// ParseHTTP decodes the CSV server,port,on_cmd,off_cmd payload.
func (s Station) ParseHTTP() (SpecialHTTP, error) {
	r := csv.NewReader(strings.NewReader(s.Sped))
	fields, err := r.Read()
	if err != nil {
		return SpecialHTTP{}, err
	}
	if len(fields) < 4 {
		return SpecialHTTP{}, fmt.Errorf("http sped has %d fields, want 4", len(fields))
	}
	return SpecialHTTP{Server: fields[0], Port: fields[1], OnCmd: fields[2], OffCmd: fields[3]}, nil
}

// MasterOf reports which master slot (1 or 2) sid is configured as, given
// the (1-based, 0=none) master indices, per spec.md §9's master_of(sid)
// helper. ok is false when sid is neither master.
func MasterOf(sid int, mas, mas2 uint16) (slot int, ok bool) {
	idx := sid + 1
	switch {
	case mas != 0 && int(mas) == idx:
		return 1, true
	case mas2 != 0 && int(mas2) == idx:
		return 2, true
	default:
		return 0, false
	}
}

// IsMaster reports whether sid is designated master 1 or master 2 by the
// given (1-based, 0=none) master indices.
func IsMaster(sid int, mas, mas2 uint16) bool {
	_, ok := MasterOf(sid, mas, mas2)
	return ok
}

// NumStations computes nstations from the configured extension board
// count, per spec.md Invariant 1.
func NumStations(extensionBoards uint16) int {
	n := (int(extensionBoards) + 1) * StationsPerBoard
	if n > MaxStations {
		n = MaxStations
	}
	return n
}

// DefaultStationName returns the "S01".."Snnn" factory-reset name for a
// 0-based station index.
func DefaultStationName(sid int) string {
	return fmt.Sprintf("S%02d", sid+1)
}
