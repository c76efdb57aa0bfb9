package configstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const secondsPerDay = 86400

// LogWriter implements engine.RunLog against the day-numbered JSON-array
// log files of spec.md §6: logs/<epoch_day>.txt, one JSON array per line.
type LogWriter struct {
	dir string
}

// NewLogWriter returns a LogWriter rooted at store's log directory,
// creating it if absent.
func NewLogWriter(s *Store) (*LogWriter, error) {
	if err := os.MkdirAll(s.LogDir(), 0o755); err != nil {
		return nil, err
	}
	return &LogWriter{dir: s.LogDir()}, nil
}

func (w *LogWriter) appendLine(end int64, fields []interface{}) error {
	day := end / secondsPerDay
	path := filepath.Join(w.dir, fmt.Sprintf("%d.txt", day))
	line, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// LogStationRun appends [pid,sid,duration,end_epoch,gpm] (gpm omitted,
// i.e. zero-valued, when the station has no flow sensor).
func (w *LogWriter) LogStationRun(programID, stationID int, duration, end int64, gpm float64) error {
	fields := []interface{}{programID, stationID, duration, end}
	if gpm > 0 {
		fields = append(fields, gpm)
	}
	return w.appendLine(end, fields)
}

// LogTag appends [count,"tag",value,end_epoch] for the fixed tag set
// s1, rd, wl, fl, s2, cu.
func (w *LogWriter) LogTag(tag string, count int, value float64, end int64) error {
	return w.appendLine(end, []interface{}{count, tag, value, end})
}
