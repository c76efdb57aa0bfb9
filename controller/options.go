package controller

// IntegerOption indexes the fixed-length IntegerOptions vector, in the
// order persisted to iopts.dat. The enumeration and the IOPT_* constant
// names follow original_source/src/defines.h; every value is a small
// unsigned integer with a declared maximum enforced on write (see
// IntegerOptionMax).
type IntegerOption int

const (
	IOptFirmwareVersion IntegerOption = iota // ro
	IOptTimezone                             // 0..108, (value-48)*15min
	IOptHTTPPortHigh
	IOptHTTPPortLow
	IOptHardwareVersion // ro
	IOptExtensionBoards // 0..24
	IOptStationDelay    // encoded signed seconds, -600..+600 step 5
	IOptMasterStation   // 1..N, 0 = none
	IOptMasterOnAdjust  // encoded signed seconds
	IOptMasterOffAdjust
	IOptWaterPercentage // 0..250
	IOptDeviceEnable    // 0/1
	IOptWeatherAlgorithm
	IOptEnableLogging // 0/1
	IOptMasterStation2
	IOptMasterOnAdjust2
	IOptMasterOffAdjust2
	IOptFirmwareMinor // ro
	IOptPulseRateHigh
	IOptPulseRateLow
	IOptRemoteExtensionMode // 0/1
	IOptSpecialStationAutoRefresh
	IOptIFTTTEnable // bitmask
	IOptSensor1Type
	IOptSensor1Option // normally-open flag packed with delays below
	IOptSensor2Type
	IOptSensor2Option
	IOptSensor1OnDelay // minutes
	IOptSensor1OffDelay
	IOptSensor2OnDelay
	IOptSensor2OffDelay
	IOptReset // ro, factory-reset request flag

	NumIOpts
)

// IntegerOptionMax is the declared maximum for each option; writes above
// this are rejected by internal/httpapi's options handler (configstore
// does not check them).
var IntegerOptionMax = [NumIOpts]uint16{
	IOptFirmwareVersion:           255,
	IOptTimezone:                  108,
	IOptHTTPPortHigh:              255,
	IOptHTTPPortLow:               255,
	IOptHardwareVersion:           255,
	IOptExtensionBoards:           24,
	IOptStationDelay:              240, // encoded, see EncodeSignedSeconds
	IOptMasterStation:             MaxStations,
	IOptMasterOnAdjust:            240,
	IOptMasterOffAdjust:           240,
	IOptWaterPercentage:           250,
	IOptDeviceEnable:              1,
	IOptWeatherAlgorithm:          255,
	IOptEnableLogging:             1,
	IOptMasterStation2:            MaxStations,
	IOptMasterOnAdjust2:           240,
	IOptMasterOffAdjust2:          240,
	IOptFirmwareMinor:             255,
	IOptPulseRateHigh:             255,
	IOptPulseRateLow:              255,
	IOptRemoteExtensionMode:       1,
	IOptSpecialStationAutoRefresh: 1,
	IOptIFTTTEnable:               255,
	IOptSensor1Type:               255,
	IOptSensor1Option:             1,
	IOptSensor2Type:               255,
	IOptSensor2Option:             1,
	IOptSensor1OnDelay:            255,
	IOptSensor1OffDelay:           255,
	IOptSensor2OnDelay:            255,
	IOptSensor2OffDelay:           255,
	IOptReset:                     1,
}

// IntegerOptions is the persisted vector, one byte-range slot per
// IntegerOption, in enum order (see configstore for the on-disk codec).
type IntegerOptions [NumIOpts]uint16

// TimezoneOffsetSeconds applies the (index-48)*15min convention of
// spec.md §9. It is not a display-only transform: persisted NV status
// timestamps and program start times depend on it.
func TimezoneOffsetSeconds(timezoneIndex uint16) int64 {
	return (int64(timezoneIndex) - 48) * 15 * 60
}

// DecodeSignedSeconds turns an encoded byte in [0,240] into a signed
// second offset in [-600,+600], 5-second steps, per spec.md §3.
func DecodeSignedSeconds(encoded uint16) int32 {
	return (int32(encoded) - 120) * 5
}

// EncodeSignedSeconds is the left inverse of DecodeSignedSeconds for any
// multiple of 5 in [-600,+600].
func EncodeSignedSeconds(seconds int32) uint16 {
	return uint16(seconds/5 + 120)
}

// StringOption indexes the fixed-length StringOptions vector.
type StringOption int

const (
	SOptPassword StringOption = iota
	SOptLocation
	SOptJavascriptURL
	SOptWeatherURL
	SOptWeatherOpts
	SOptIFTTTKey
	SOptMQTTOpts

	NumSOpts
)

// MaxStringOptionLen is the fixed slot size for each string option, per
// spec.md §3.
const MaxStringOptionLen = 160

// StringOptions is the persisted vector of fixed-size, NUL-terminated-on-
// disk strings.
type StringOptions [NumSOpts]string

// SensorType enumerates configured sensor kinds for sensor 1/2.
type SensorType uint8

const (
	SensorNone SensorType = iota
	SensorRain
	SensorFlow
	SensorSoil
	SensorPSwitch SensorType = 0xF0
	SensorOther   SensorType = 0xFF
)

// IsBinary reports whether the sensor contributes to the binary
// "sensorN_active" dynamic-event gating of spec.md §4.10.
func (t SensorType) IsBinary() bool {
	return t == SensorRain || t == SensorSoil
}
