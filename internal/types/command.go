package types

// Opcode identifies an abstract controller command. Drivers decide per model
// which opcodes their protocol supports.
type Opcode string

const (
	OpcodePatchSelect          Opcode = "patch_select"
	OpcodeParameter            Opcode = "parameter"
	OpcodeAssign               Opcode = "assign"
	OpcodePatchBank            Opcode = "patch_bank"
	OpcodeBankUp               Opcode = "bank_up"
	OpcodeBankDown             Opcode = "bank_down"
	OpcodeNextPatch            Opcode = "next_patch"
	OpcodePrevPatch            Opcode = "prev_patch"
	OpcodeMute                 Opcode = "mute"
	OpcodeOpenPageDevice       Opcode = "open_page_device"
	OpcodeOpenNextPageOfDevice Opcode = "open_next_page_of_device"
	OpcodeToggleExpPedal       Opcode = "toggle_exp_pedal"
	OpcodeSnapScene            Opcode = "snapscene"
	OpcodeLooper               Opcode = "looper"
)

// Opcodes lists every opcode known to the firmware, in menu order.
var Opcodes = []Opcode{
	OpcodePatchSelect,
	OpcodeParameter,
	OpcodeAssign,
	OpcodePatchBank,
	OpcodeBankUp,
	OpcodeBankDown,
	OpcodeNextPatch,
	OpcodePrevPatch,
	OpcodeMute,
	OpcodeOpenPageDevice,
	OpcodeOpenNextPageOfDevice,
	OpcodeToggleExpPedal,
	OpcodeSnapScene,
	OpcodeLooper,
}

// Valid reports whether op is one of the known opcodes.
func (op Opcode) Valid() bool {
	for _, known := range Opcodes {
		if op == known {
			return true
		}
	}
	return false
}

// Command is built from the page layout when a switch is pressed and consumed
// immediately by the dispatcher.
//
// Payload meaning per opcode:
//   - patch_select: Value1 = zero-based patch index
//   - parameter: Value1 = parameter index
//   - patch_bank: Value1 = 1-based position in bank, Value2 = bank size
//   - bank_up/bank_down: Value1 = bank size
//   - open_page_device: Value1 = device page slot (1..4)
type Command struct {
	Opcode Opcode `json:"opcode" yaml:"opcode"`
	Device uint8  `json:"device" yaml:"device"`
	Value1 uint16 `json:"value1,omitempty" yaml:"value1,omitempty"`
	Value2 uint16 `json:"value2,omitempty" yaml:"value2,omitempty"`
}
