package coordinator

import "github.com/arjav0703/typing-game/pkg/session"

type source int

const (
	sourceInbound source = iota
	sourceBroadcast
)

func (s source) other() source {
	if s == sourceInbound {
		return sourceBroadcast
	}
	return sourceInbound
}

type event struct {
	source   source
	message  message
	snapshot session.Snapshot
	closed   bool
}

// wait returns the next event from either source. Ready sources are polled
// starting with prefer; callers pass the source that was not served last, so
// when both stay ready they are served alternately. With nothing ready it
// blocks on both.
func wait(prefer source, inbound <-chan message, snapshots <-chan session.Snapshot) event {
	for _, src := range [2]source{prefer, prefer.other()} {
		if ev, ok := poll(src, inbound, snapshots); ok {
			return ev
		}
	}
	select {
	case m := <-inbound:
		return event{source: sourceInbound, message: m}
	case sn, ok := <-snapshots:
		return event{source: sourceBroadcast, snapshot: sn, closed: !ok}
	}
}

func poll(src source, inbound <-chan message, snapshots <-chan session.Snapshot) (event, bool) {
	switch src {
	case sourceInbound:
		select {
		case m := <-inbound:
			return event{source: sourceInbound, message: m}, true
		default:
		}
	case sourceBroadcast:
		select {
		case sn, ok := <-snapshots:
			return event{source: sourceBroadcast, snapshot: sn, closed: !ok}, true
		default:
		}
	}
	return event{}, false
}
