package devices

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"go.uber.org/zap"
)

const validSetup = `
devices:
  - model: zms70
    enabled: 1
    midi_channel: 2
  - model: generic
    pages: [205]
pages:
  - id: 0
    name: Default
    switches:
      1:
        - opcode: parameter
          device: 0
          value1: 3
      2:
        - opcode: next_patch
          device: 1
  - id: 1
    name: Zoom
    switches:
      1:
        - opcode: patch_bank
          device: 0
          value1: 1
          value2: 5
`

func TestSetupLoader_Parse(t *testing.T) {
	loader, err := NewSetupLoader()
	if err != nil {
		t.Fatalf("NewSetupLoader() error = %v", err)
	}

	setup, err := loader.Parse([]byte(validSetup))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(setup.Devices) != 2 || setup.Devices[0].Model != "zms70" {
		t.Fatalf("devices = %+v", setup.Devices)
	}
	if *setup.Devices[0].Enabled != types.DeviceOn || *setup.Devices[0].Channel != 2 {
		t.Errorf("device 0 overrides = %+v", setup.Devices[0])
	}
	if pages := setup.Devices[1].Pages; len(pages) != 1 || pages[0] != types.PageCurrentPatchBank {
		t.Errorf("device 1 pages = %v, want [205]", pages)
	}
	if len(setup.Pages) != 2 {
		t.Fatalf("len(pages) = %d, want 2", len(setup.Pages))
	}
	cmds := setup.Pages[0].Switches[1]
	if len(cmds) != 1 || cmds[0].Opcode != types.OpcodeParameter || cmds[0].Value1 != 3 {
		t.Errorf("page 0 switch 1 = %+v", cmds)
	}
}

func TestSetupLoader_Invalid(t *testing.T) {
	loader, err := NewSetupLoader()
	if err != nil {
		t.Fatalf("NewSetupLoader() error = %v", err)
	}

	tests := []struct {
		name string
		doc  string
	}{
		{"unknown model", "devices:\n  - model: katana\n"},
		{"channel out of range", "devices:\n  - model: zms70\n    midi_channel: 17\n"},
		{"unknown opcode", "devices: []\npages:\n  - id: 0\n    name: x\n    switches:\n      1:\n        - opcode: jump\n          device: 0\n"},
		{"switch zero", "devices: []\npages:\n  - id: 0\n    name: x\n    switches:\n      0:\n        - opcode: mute\n          device: 0\n"},
		{"not yaml", "devices: [\n"},
	}

	for _, tt := range tests {
		if _, err := loader.Parse([]byte(tt.doc)); err == nil {
			t.Errorf("%s: Parse() succeeded, want error", tt.name)
		}
	}
}

func TestSetupLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup.yaml")
	if err := os.WriteFile(path, []byte(validSetup), 0o644); err != nil {
		t.Fatal(err)
	}

	loader, err := NewSetupLoader()
	if err != nil {
		t.Fatalf("NewSetupLoader() error = %v", err)
	}

	if _, err := loader.Load(path); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if _, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) succeeded")
	}
}

func TestSetupLoader_ShippedSetup(t *testing.T) {
	loader, err := NewSetupLoader()
	if err != nil {
		t.Fatalf("NewSetupLoader() error = %v", err)
	}

	setup, err := loader.Load(filepath.Join("..", "..", "configs", "setup.yaml"))
	if err != nil {
		t.Fatalf("Load(configs/setup.yaml) error = %v", err)
	}

	if _, err := NewRegistry(setup.Devices, zap.NewNop()); err != nil {
		t.Errorf("NewRegistry() error = %v", err)
	}
}
