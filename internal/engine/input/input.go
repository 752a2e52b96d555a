// Package input turns SDL2 events into pointer, key and window events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a processed input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventPointerDown
	EventPointerMove
	EventPointerUp
	EventPointerLeave
	EventWheel
)

// Mouse buttons.
const (
	ButtonLeft  = sdl.BUTTON_LEFT
	ButtonRight = sdl.BUTTON_RIGHT
)

// Event represents a processed input event. Pointer positions are in window
// coordinates.
type Event struct {
	Type    EventType
	Key     string // SDL key name, e.g. "N", "Escape"
	Width   int
	Height  int
	X, Y    float32
	DX, DY  float32 // relative motion
	WheelY  float32
	Button  uint8
	Buttons uint32 // button state mask during motion
}

// Input handles all input processing.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and converts them.
// Returns true if the app should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			return true

		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			case sdl.WINDOWEVENT_LEAVE:
				i.events = append(i.events, Event{Type: EventPointerLeave})
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				i.events = append(i.events, Event{
					Type: EventKeyDown,
					Key:  sdl.GetKeyName(e.Keysym.Sym),
				})
			}

		case *sdl.MouseMotionEvent:
			i.events = append(i.events, Event{
				Type:    EventPointerMove,
				X:       float32(e.X),
				Y:       float32(e.Y),
				DX:      float32(e.XRel),
				DY:      float32(e.YRel),
				Buttons: e.State,
			})

		case *sdl.MouseButtonEvent:
			typ := EventPointerDown
			if e.Type == sdl.MOUSEBUTTONUP {
				typ = EventPointerUp
			}
			i.events = append(i.events, Event{
				Type:   typ,
				X:      float32(e.X),
				Y:      float32(e.Y),
				Button: e.Button,
			})

		case *sdl.MouseWheelEvent:
			i.events = append(i.events, Event{
				Type:   EventWheel,
				WheelY: float32(e.Y),
			})
		}
	}

	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Held reports whether button was down during a motion event.
func (e Event) Held(button uint8) bool {
	return e.Buttons&sdl.Button(uint32(button)) != 0
}
