package drivers

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownModel is returned by New for models without a driver.
var ErrUnknownModel = errors.New("unknown device model")

// Universal SysEx bytes of the identity request and reply.
const (
	universalNonRealtime = 0x7E
	generalInformation   = 0x06
	identityRequest      = 0x01
	identityReply        = 0x02
	allDevices           = 0x7F
)

// IdentityRequest is the universal device inquiry, F0 7E 7F 06 01 F7.
func IdentityRequest() []byte {
	return []byte{0xF0, universalNonRealtime, allDevices, generalInformation, identityRequest, 0xF7}
}

var models = map[string]func() Driver{
	"zms70":   func() Driver { return &ZoomMS70{} },
	"generic": func() Driver { return &Generic{} },
}

// New returns the driver for the given model name.
func New(model string) (Driver, error) {
	constructor, ok := models[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return constructor(), nil
}

// Models returns the supported model names, sorted.
func Models() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
