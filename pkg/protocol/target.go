package protocol

import "strconv"

// Logical destination id. Named constants cover the reserved values,
// every other value is an opaque id and equally valid.
type TargetID uint8

const (
	TargetReserved    TargetID = 0
	TargetDefault     TargetID = 1
	TargetJSONControl TargetID = 246
	TargetJSONConfig  TargetID = 250
	TargetJSONStatus  TargetID = 251
	TargetDMXTransit  TargetID = 254
	TargetAll         TargetID = 255
)

var targetNames = map[TargetID]string{
	TargetReserved:    "reserved",
	TargetDefault:     "default",
	TargetJSONControl: "json-control",
	TargetJSONConfig:  "json-config",
	TargetJSONStatus:  "json-status",
	TargetDMXTransit:  "dmx-transit",
	TargetAll:         "all",
}

// Reports whether id is one of the named constants
func (id TargetID) Known() (known bool) {
	_, known = targetNames[id]
	return
}

func (id TargetID) String() string {
	if name, ok := targetNames[id]; ok {
		return name
	}
	return strconv.Itoa(int(id))
}
