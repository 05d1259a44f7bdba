package alarm

import "strings"

// StatusTripped is the status a device reports for an alarm in abnormal state.
const StatusTripped = "Tripped"

// fingerprintSeparator cannot occur in XML attribute values, so joined
// attributes never collide.
const fingerprintSeparator = "\x1f"

// Descriptor is one alarm rule as reported by a device.
type Descriptor struct {
	Num         string
	DeviceID    string
	Field       string
	LimitType   string
	Limit       string
	Delay       string
	RepeatCount string
	Email       string
	Actions     string
	// Status is "Tripped" while the rule is violated.
	Status string
}

// Tripped reports whether the rule is currently violated.
func (d *Descriptor) Tripped() bool {
	return d.Status == StatusTripped
}

// Fingerprint identifies the rule across polls. It covers every attribute
// except Status, so it stays stable while the rule itself is unchanged.
func (d *Descriptor) Fingerprint() string {
	return strings.Join([]string{
		d.Num,
		d.DeviceID,
		d.Field,
		d.LimitType,
		d.Limit,
		d.Delay,
		d.RepeatCount,
		d.Email,
		d.Actions,
	}, fingerprintSeparator)
}
