package configstore

import (
	"crypto/rand"
	"crypto/sha256"
	_ "embed"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v2"

	"github.com/sprinklerd/sprinklerd/controller"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// factoryDefaults mirrors the subset of options a factory reset seeds
// from defaults.yaml; everything else zeroes out.
type factoryDefaults struct {
	FirmwareVersion           uint16 `yaml:"firmwareVersion"`
	FirmwareMinor             uint16 `yaml:"firmwareMinor"`
	HardwareVersion           uint16 `yaml:"hardwareVersion"`
	Timezone                  uint16 `yaml:"timezone"`
	HTTPPortHigh              uint16 `yaml:"httpPortHigh"`
	HTTPPortLow               uint16 `yaml:"httpPortLow"`
	ExtensionBoards           uint16 `yaml:"extensionBoards"`
	StationDelay              uint16 `yaml:"stationDelay"`
	WaterPercentage           uint16 `yaml:"waterPercentage"`
	DeviceEnable              uint16 `yaml:"deviceEnable"`
	EnableLogging             uint16 `yaml:"enableLogging"`
	RemoteExtensionMode       uint16 `yaml:"remoteExtensionMode"`
	SpecialStationAutoRefresh uint16 `yaml:"specialStationAutoRefresh"`
	PulseRateHigh             uint16 `yaml:"pulseRateHigh"`
	PulseRateLow              uint16 `yaml:"pulseRateLow"`
	Sensor1Type               uint16 `yaml:"sensor1Type"`
	Sensor2Type               uint16 `yaml:"sensor2Type"`
	Sensor1OnDelay            uint16 `yaml:"sensor1OnDelay"`
	Sensor1OffDelay           uint16 `yaml:"sensor1OffDelay"`
	Sensor2OnDelay            uint16 `yaml:"sensor2OnDelay"`
	Sensor2OffDelay           uint16 `yaml:"sensor2OffDelay"`
	Location                  string `yaml:"location"`
	WeatherURL                string `yaml:"weatherURL"`
	Password                  string `yaml:"password"`
}

func loadFactoryDefaults() (factoryDefaults, error) {
	var d factoryDefaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		return d, err
	}
	return d, nil
}

// FactoryReset rewrites every persisted file to its shipped default,
// per spec.md §6: triggered by a firmware-version mismatch or an absent
// done.dat. The caller supplies nstations (derived from the default
// extension-board count) so default station names can be generated.
func (s *Store) FactoryReset(nstations int) (controller.IntegerOptions, controller.StringOptions, []controller.Station, error) {
	d, err := loadFactoryDefaults()
	if err != nil {
		return controller.IntegerOptions{}, controller.StringOptions{}, nil, err
	}

	var iopts controller.IntegerOptions
	iopts[controller.IOptFirmwareVersion] = d.FirmwareVersion
	iopts[controller.IOptFirmwareMinor] = d.FirmwareMinor
	iopts[controller.IOptHardwareVersion] = d.HardwareVersion
	iopts[controller.IOptTimezone] = d.Timezone
	iopts[controller.IOptHTTPPortHigh] = d.HTTPPortHigh
	iopts[controller.IOptHTTPPortLow] = d.HTTPPortLow
	iopts[controller.IOptExtensionBoards] = d.ExtensionBoards
	iopts[controller.IOptStationDelay] = d.StationDelay
	iopts[controller.IOptWaterPercentage] = d.WaterPercentage
	iopts[controller.IOptDeviceEnable] = d.DeviceEnable
	iopts[controller.IOptEnableLogging] = d.EnableLogging
	iopts[controller.IOptRemoteExtensionMode] = d.RemoteExtensionMode
	iopts[controller.IOptSpecialStationAutoRefresh] = d.SpecialStationAutoRefresh
	iopts[controller.IOptPulseRateHigh] = d.PulseRateHigh
	iopts[controller.IOptPulseRateLow] = d.PulseRateLow
	iopts[controller.IOptSensor1Type] = d.Sensor1Type
	iopts[controller.IOptSensor2Type] = d.Sensor2Type
	iopts[controller.IOptSensor1OnDelay] = d.Sensor1OnDelay
	iopts[controller.IOptSensor1OffDelay] = d.Sensor1OffDelay
	iopts[controller.IOptSensor2OnDelay] = d.Sensor2OnDelay
	iopts[controller.IOptSensor2OffDelay] = d.Sensor2OffDelay

	var sopts controller.StringOptions
	hashed, err := deterministicDefaultPasswordHash(d.Password)
	if err != nil {
		return iopts, sopts, nil, err
	}
	sopts[controller.SOptPassword] = hashed
	sopts[controller.SOptLocation] = d.Location
	sopts[controller.SOptWeatherURL] = d.WeatherURL

	stations := make([]controller.Station, nstations)
	for sid := 0; sid < nstations; sid++ {
		stations[sid] = controller.Station{Name: controller.DefaultStationName(sid)}
	}

	if err := s.SaveIOpts(iopts); err != nil {
		return iopts, sopts, stations, err
	}
	if err := s.SaveSOpts(sopts); err != nil {
		return iopts, sopts, stations, err
	}
	if err := s.SaveStations(stations); err != nil {
		return iopts, sopts, stations, err
	}
	if err := s.SavePrograms(nil); err != nil {
		return iopts, sopts, stations, err
	}
	nv := controller.NonVolatileStatus{RebootCause: controller.RebootCauseReset}
	if err := s.SaveNVStatus(nv); err != nil {
		return iopts, sopts, stations, err
	}
	if err := s.WriteDoneFile(); err != nil {
		return iopts, sopts, stations, err
	}
	return iopts, sopts, stations, nil
}

// defaultPasswordHashMu serializes factory resets against each other, since
// deterministicDefaultPasswordHash briefly substitutes crypto/rand.Reader
// process-wide.
var defaultPasswordHashMu sync.Mutex

// deterministicDefaultPasswordHash bcrypt-hashes the factory-default
// password with a salt derived from the password itself, so that a factory
// reset always rewrites the same sopts.dat bytes, per spec.md's Testable
// Property 6. bcrypt.GenerateFromPassword offers no API to supply a salt
// directly; it always draws one from crypto/rand.Reader, so this swaps that
// package-level reader for a deterministic one for the single call. This
// is safe here because FactoryReset only runs at boot before the HTTP
// server (and its session/TLS randomness needs) are serving requests.
func deterministicDefaultPasswordHash(password string) (string, error) {
	defaultPasswordHashMu.Lock()
	defer defaultPasswordHashMu.Unlock()

	seed := sha256.Sum256([]byte("sprinklerd factory default: " + password))
	orig := rand.Reader
	rand.Reader = &cyclicReader{seed: seed[:]}
	defer func() { rand.Reader = orig }()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// cyclicReader deterministically fills reads by cycling through seed.
type cyclicReader struct {
	seed []byte
	pos  int
}

func (r *cyclicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.seed[r.pos%len(r.seed)]
		r.pos++
	}
	return len(p), nil
}
