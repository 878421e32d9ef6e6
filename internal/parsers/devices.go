package parsers

import "strings"

// Device is one entry of `adb devices -l`.
type Device struct {
	Serial string
	// State is "device" when usable; "offline" and "unauthorized" are common otherwise.
	State string
	Model string
}

// Ready reports whether commands can be sent to the device.
func (d Device) Ready() bool {
	return d.State == "device"
}

// ParseADBDevices parses `adb devices` or `adb devices -l`. Daemon startup
// chatter and the header line are ignored.
func ParseADBDevices(output string) []Device {
	var devices []Device
	for _, line := range strings.Split(Sanitize(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "List of devices") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		d := Device{Serial: fields[0], State: fields[1]}
		for _, f := range fields[2:] {
			if model, ok := strings.CutPrefix(f, "model:"); ok {
				d.Model = model
			}
		}
		devices = append(devices, d)
	}
	return devices
}
