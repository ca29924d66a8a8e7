// Package control maps JSON commands onto a shift.Shifter.
//
// Payload format:
//
//	{"op": "set", "register": 0, "data": 255, "apply": true}
//	{"op": "high", "register": 1, "pin": 3}
//	{"op": "low", "register": 1, "pin": 3, "apply": true}
//	{"op": "invert"}
//	{"op": "apply"}
package control

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sweeney/shift-chain/internal/shift"
)

// Op names a command.
type Op string

const (
	OpSet    Op = "set"
	OpHigh   Op = "high"
	OpLow    Op = "low"
	OpInvert Op = "invert"
	OpApply  Op = "apply"
)

// ErrInvalidCommand is returned for payloads that cannot be executed.
var ErrInvalidCommand = errors.New("control: invalid command")

// Command is one decoded request.
type Command struct {
	Op       Op      `json:"op"`
	Register *int    `json:"register,omitempty"`
	Data     *uint64 `json:"data,omitempty"`
	Pin      *int    `json:"pin,omitempty"`
	Apply    bool    `json:"apply,omitempty"`
}

// Parse decodes and validates a command payload.
func Parse(payload []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(payload, &c); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	switch c.Op {
	case OpSet:
		if c.Register == nil || c.Data == nil {
			return Command{}, fmt.Errorf("%w: set needs register and data", ErrInvalidCommand)
		}
	case OpHigh, OpLow:
		if c.Register == nil || c.Pin == nil {
			return Command{}, fmt.Errorf("%w: %s needs register and pin", ErrInvalidCommand, c.Op)
		}
	case OpInvert, OpApply:
	case "":
		return Command{}, fmt.Errorf("%w: missing op", ErrInvalidCommand)
	default:
		return Command{}, fmt.Errorf("%w: unknown op %q", ErrInvalidCommand, c.Op)
	}
	return c, nil
}

// Execute runs c against s and reports whether the chain was shifted out.
// invert with apply set re-applies straight away.
func Execute(s *shift.Shifter, c Command) (applied bool, err error) {
	switch c.Op {
	case OpSet:
		err = s.Set(*c.Register, *c.Data, c.Apply)
		return c.Apply && err == nil, err
	case OpHigh:
		err = s.SetPinHigh(*c.Register, *c.Pin, c.Apply)
		return c.Apply && err == nil, err
	case OpLow:
		err = s.SetPinLow(*c.Register, *c.Pin, c.Apply)
		return c.Apply && err == nil, err
	case OpInvert:
		s.Invert()
		if !c.Apply {
			return false, nil
		}
		if err := s.Apply(); err != nil {
			return false, err
		}
		return true, nil
	case OpApply:
		if err := s.Apply(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, fmt.Errorf("%w: unknown op %q", ErrInvalidCommand, c.Op)
}
