package ingest

import (
	"bytes"
	"strings"
)

// DefaultProductID prefixes every control instruction.
const DefaultProductID = "cocos-adaptive-performance"

type Action string

const (
	// ActionRegister is sent by a device announcing itself.
	ActionRegister Action = "register"
	// ActionHello is sent to a device to ask it to register.
	ActionHello Action = "hello"
)

func (a Action) valid() bool {
	return a == ActionRegister || a == ActionHello
}

// Instruction is a parsed control message "<product>;<action>!".
type Instruction struct {
	ProductID string
	Action    Action
}

func (i Instruction) String() string {
	return i.ProductID + ";" + string(i.Action) + "!"
}

func (i Instruction) Bytes() []byte {
	return []byte(i.String())
}

// BuildInstruction formats a control message for productID.
func BuildInstruction(productID string, action Action) []byte {
	return Instruction{ProductID: productID, Action: action}.Bytes()
}

// ParseInstruction recognizes a control message. Anything else, including
// JSON frames, returns false.
func ParseInstruction(payload []byte) (Instruction, bool) {
	text := string(bytes.TrimSpace(payload))
	if !strings.HasSuffix(text, "!") {
		return Instruction{}, false
	}

	product, action, found := strings.Cut(strings.TrimSuffix(text, "!"), ";")
	if !found || product == "" || strings.ContainsAny(product, "{}\"") {
		return Instruction{}, false
	}

	inst := Instruction{ProductID: product, Action: Action(action)}
	if !inst.Action.valid() {
		return Instruction{}, false
	}

	return inst, true
}
