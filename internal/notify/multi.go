package notify

import "github.com/sprinklerd/sprinklerd/controller"

// MultiNotifier fans one event out to every wrapped Notifier.
type MultiNotifier []controller.Notifier

func (m MultiNotifier) Notify(e controller.Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(e)
		}
	}
}
