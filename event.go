package ptcop

import "sort"

// EventKind tags the payload carried by an Event. Values match the decode
// table in spec.md §3/§4.7; kind 0 (Null) is never stored — the reader
// skips Null-kind events during decode (spec.md §4.5).
type EventKind uint8

const (
	EventNull EventKind = iota
	EventOn
	EventKey
	EventPanVolume
	EventVelocity
	EventVolume
	EventPortament
	EventVoiceNo
	EventGroupNo
	EventTuning
	EventPanTime
	EventBeatClock
	EventBeatTempo
	EventBeatNum
	EventRepeat
	EventLast
)

// kindPriority gives the stable tie-break order for events sharing a clock:
// smaller wins. Resolved from original_source/src/pxtone/og_impl/event.rs
// per spec.md §4.7 and DESIGN.md's Open Question log.
var kindPriority = map[EventKind]int{
	EventOn:        0,
	EventKey:       1,
	EventPanVolume: 2,
	EventVelocity:  3,
	EventVolume:    4,
	EventPortament: 5,
	EventVoiceNo:   6,
	EventGroupNo:   7,
	EventTuning:    8,
	EventPanTime:   9,
	EventBeatClock: 10,
	EventBeatTempo: 10,
	EventBeatNum:   10,
	EventRepeat:    10,
	EventLast:      10,
}

// IsUnitLevel reports whether this event kind applies to a unit (as opposed
// to a master-level event that mutates the Project directly).
func (k EventKind) IsUnitLevel() bool {
	switch k {
	case EventBeatClock, EventBeatTempo, EventBeatNum, EventRepeat, EventLast:
		return false
	default:
		return true
	}
}

// Event is one entry in a Project's time-ordered event stream. Exactly one
// of the payload fields is meaningful, selected by Kind; see spec.md §3 for
// the kind -> payload mapping. Payloads are stored in memory form (§4.7),
// not disk form.
type Event struct {
	Clock  uint32
	UnitNo uint8
	Kind   EventKind

	// Payload fields; interpretation depends on Kind.
	I32 int32        // Key
	U32 uint32       // On (length), Portament (glide ticks)
	U8  uint8        // VoiceNo, GroupNo
	Pan Pan          // PanVolume, PanTime
	UI  UnitInterval // Velocity, Volume
	Tun Tuning       // Tuning
}

// maxEvents is the cap the reference implementation enforces on total
// events; exceeding it surfaces ErrTooManyEvents (spec.md §4.2).
const maxEvents = 1 << 20

// EventList is a time-sorted, contiguous collection of Events. Unlike the
// reference implementation's linked list, it is a plain slice: the sampler
// only ever walks it forward, so a sorted array is cache-friendlier for
// that access pattern and edits are rare relative to rendering (spec.md
// §4.2, §9).
type EventList struct {
	events []Event
}

// Len returns the number of events in the list.
func (el *EventList) Len() int { return len(el.events) }

// At returns the event at position i in clock order.
func (el *EventList) At(i int) Event { return el.events[i] }

// Add inserts ev keeping the list sorted by (Clock, tie-break kind
// priority). Fails only when the list is already at its event cap.
func (el *EventList) Add(ev Event) error {
	if len(el.events) >= maxEvents {
		return ErrTooManyEvents
	}

	// First index whose event sorts strictly after ev; inserting here
	// keeps the list stable (ev lands after any existing equal-key
	// events).
	i := sort.Search(len(el.events), func(i int) bool {
		return eventLess(ev, el.events[i])
	})

	el.events = append(el.events, Event{})
	copy(el.events[i+1:], el.events[i:])
	el.events[i] = ev
	return nil
}

// eventLess orders a strictly before b by (Clock, tie-break kind priority).
func eventLess(a, b Event) bool {
	if a.Clock != b.Clock {
		return a.Clock < b.Clock
	}
	return kindPriority[a.Kind] < kindPriority[b.Kind]
}

// Iter calls fn for every event in clock order, stopping early if fn
// returns false.
func (el *EventList) Iter(fn func(Event) bool) {
	for _, ev := range el.events {
		if !fn(ev) {
			return
		}
	}
}

// IterMut calls fn with a pointer to each event in clock order, stopping
// early if fn returns false. Payload fields may be edited in place; changing
// Clock or Kind through the pointer breaks the list's ordering invariant —
// remove and re-add the event instead.
func (el *EventList) IterMut(fn func(*Event) bool) {
	for i := range el.events {
		if !fn(&el.events[i]) {
			return
		}
	}
}

// Remove deletes the event at position i in clock order.
func (el *EventList) Remove(i int) error {
	if i < 0 || i >= len(el.events) {
		return ErrBadIndex
	}
	el.events = append(el.events[:i], el.events[i+1:]...)
	return nil
}

// RemoveUnitReferences scrubs every event targeting unitNo and re-homes the
// unit_no of every event targeting a unit after unitNo down by one, matching
// the reference implementation's behavior when a unit is removed from the
// project (spec.md §3 "Ownership & lifecycle").
func (el *EventList) RemoveUnitReferences(unitNo int) {
	out := el.events[:0]
	for _, ev := range el.events {
		switch {
		case int(ev.UnitNo) == unitNo:
			continue
		case int(ev.UnitNo) > unitNo:
			ev.UnitNo--
			out = append(out, ev)
		default:
			out = append(out, ev)
		}
	}
	el.events = out
}

// LastClock returns the clock of the final event, or 0 if the list is
// empty.
func (el *EventList) LastClock() uint32 {
	if len(el.events) == 0 {
		return 0
	}
	return el.events[len(el.events)-1].Clock
}
