package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Relay adapts a program's Send into a store observer. Observers may fire
// from inside Update, where a blocking Send would deadlock the event loop,
// so notifications are queued and coalesced: at most one is pending.
// stop ends the forwarding goroutine; notifications after stop are dropped.
func Relay(send func(tea.Msg)) (notify func(), stop func()) {
	pending := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-pending:
				select {
				case <-done:
					return
				default:
				}
				send(StateChangedMsg{})
			}
		}
	}()
	var once sync.Once
	notify = func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	}
	stop = func() { once.Do(func() { close(done) }) }
	return notify, stop
}
