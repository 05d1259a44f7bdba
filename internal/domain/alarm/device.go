package alarm

// Field is one sensor reading of a device.
type Field struct {
	// Key identifies the sensor within its device (e.g. "TempF").
	Key string
	// NiceName is the human-readable sensor name.
	NiceName string
	// Value is the reading exactly as reported.
	Value string
}

// Device is the snapshot of one device (the goose itself or an attached
// sensor) taken during a single poll.
type Device struct {
	// ID is the device identifier referenced by alarm rules.
	ID string
	// Fields maps a sensor key to its reading.
	Fields map[string]Field
}

// Field returns the reading stored under key.
func (d *Device) Field(key string) (Field, bool) {
	field, ok := d.Fields[key]

	return field, ok
}

// PollResult is the normalised outcome of polling one host.
type PollResult struct {
	// Devices lists every device reported by the host.
	Devices []Device
	// Alarms lists every alarm rule configured on the host.
	Alarms []Descriptor
}

// Device returns the first device with the given identifier.
func (r *PollResult) Device(id string) (*Device, bool) {
	for i := range r.Devices {
		if r.Devices[i].ID == id {
			return &r.Devices[i], true
		}
	}

	return nil, false
}
