// Package sysreboot implements engine.Rebooter against logind over
// D-Bus, and exposes systemd watchdog/ready notifications for the main
// process supervisor.
package sysreboot

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/godbus/dbus/v5"

	"github.com/sprinklerd/sprinklerd/controller"
)

// Logind implements engine.Rebooter by calling
// org.freedesktop.login1.Manager.Reboot over the system bus.
type Logind struct {
	log controller.Logger
}

// New returns a Logind rebooter.
func New(log controller.Logger) *Logind {
	return &Logind{log: log}
}

// Reboot asks logind to reboot the host. cause is logged but otherwise
// has no effect on the D-Bus call; the engine has already persisted it
// to NonVolatileStatus before invoking Rebooter.
func (l *Logind) Reboot(cause controller.RebootCause) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("sysreboot: connect system bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object("org.freedesktop.login1", dbus.ObjectPath("/org/freedesktop/login1"))
	call := obj.Call("org.freedesktop.login1.Manager.Reboot", 0, false)
	if call.Err != nil {
		return fmt.Errorf("sysreboot: logind reboot: %w", call.Err)
	}
	if l.log != nil {
		l.log.LogWarning("sysreboot", fmt.Sprintf("reboot requested, cause=%d", cause))
	}
	return nil
}

// NotifyReady tells systemd the service finished starting, a no-op
// outside a systemd unit with Type=notify.
func NotifyReady() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	return err
}

// NotifyWatchdog pings the systemd watchdog; callers invoke this from the
// tick loop so a hung engine is restarted by systemd.
func NotifyWatchdog() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
	return err
}
