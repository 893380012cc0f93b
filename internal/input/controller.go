// Package input implements the standard NES controller's serial shift
// register protocol over $4016/$4017.
package input

import "gones/internal/logging"

// Button represents an NES controller button as its single-bit mask in the
// 8-bit shift register.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Short aliases matching the named-key table frontends bind against.
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Up     = ButtonUp
	Down   = ButtonDown
	Left   = ButtonLeft
	Right  = ButtonRight
)

// Controller models one standard NES controller's shift register.
type Controller struct {
	buttons uint8

	shiftRegister uint8
	strobe        bool

	bitPosition uint8

	log *logging.Logger
}

// New creates a new Controller instance.
func New() *Controller {
	return &Controller{log: logging.New("input")}
}

// SetButton sets the pressed state of a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// SetButtons sets all eight button states at once, in NES controller order:
// A, B, Select, Start, Up, Down, Left, Right.
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	bits := []Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= uint8(bits[i])
		}
	}
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// IsPressed returns true if the button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// Write handles a write to the controller strobe register. While strobe is
// held high, the shift register continuously reloads from live button
// state; the falling edge latches it for serial reading.
func (c *Controller) Write(value uint8) {
	c.strobe = (value & 1) != 0
	if c.strobe {
		c.shiftRegister = c.buttons
		c.bitPosition = 0
	}
}

// Read shifts out the next bit. The first 8 reads return button states
// (A first); every read beyond that returns 1, matching the open-bus-high
// behavior of a real controller's shift register once it runs dry.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return uint8(c.buttons & 1)
	}

	var result uint8
	if c.bitPosition < 8 {
		result = c.shiftRegister & 1
		c.shiftRegister >>= 1
	} else {
		result = 1
	}
	c.bitPosition++
	return result
}

// Reset clears all controller state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
	c.bitPosition = 0
}

// EnableDebug turns on debug-level logging for this controller.
func (c *Controller) EnableDebug(enable bool) {
	if enable {
		c.log.SetLevel(logging.Debug)
	}
}

// GetBitPosition returns the current shift position, exposed for tests.
func (c *Controller) GetBitPosition() uint8 {
	return c.bitPosition
}

// InputState holds both controller ports.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates an InputState with two fresh controllers.
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets both controllers.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// EnableDebug turns on debug logging for both controllers.
func (is *InputState) EnableDebug(enable bool) {
	is.Controller1.EnableDebug(enable)
	is.Controller2.EnableDebug(enable)
}

// SetButtons1 sets all button states for controller 1.
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets all button states for controller 2.
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read reads from a controller port. $4017 carries bit 6 set on real
// hardware, reflecting open-bus behavior shared with the APU frame counter
// register at that address.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write writes to the controller strobe register. Both controllers share
// the $4016 strobe line.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
