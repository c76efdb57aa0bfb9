// Package housekeeping runs the periodic maintenance jobs that sit
// outside the once-per-second engine tick: daily pruning of old
// day-numbered log files.
package housekeeping

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"

	"github.com/sprinklerd/sprinklerd/controller"
)

// LogRetentionDays bounds how long day-numbered log files are kept.
const LogRetentionDays = 60

// Scheduler runs housekeeping jobs on their own cron schedule, separate
// from the engine's tick loop.
type Scheduler struct {
	cron   *cron.Cron
	logDir string
	log    controller.Logger
}

// New returns a Scheduler that will prune logDir's day-numbered log files
// daily once Start is called.
func New(logDir string, log controller.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), logDir: logDir, log: log}
}

// Start registers the built-in jobs and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("17 3 * * *", s.pruneOldLogs); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-flight job.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) pruneOldLogs() {
	entries, err := os.ReadDir(s.logDir)
	if err != nil {
		return
	}
	cutoff := time.Now().Unix()/86400 - LogRetentionDays
	var freed int64
	var removed int
	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".txt" {
			continue
		}
		day, err := strconv.ParseInt(name[:len(name)-len(ext)], 10, 64)
		if err != nil {
			continue
		}
		if day < cutoff {
			path := filepath.Join(s.logDir, name)
			if info, err := e.Info(); err == nil {
				freed += info.Size()
			}
			if err := os.Remove(path); err != nil {
				s.log.LogWarning("housekeeping", "prune "+name+": "+err.Error())
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		s.log.LogInfo("housekeeping", fmt.Sprintf("pruned %d log file(s), freed %s", removed, humanize.Bytes(uint64(freed))))
	}
}
