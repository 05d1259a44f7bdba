package correlator

import (
	"errors"
	"fmt"

	"github.com/oshokin/goose-belt/internal/domain/alarm"
)

var (
	// ErrUnknownDevice means an alarm references a device the host did not report.
	ErrUnknownDevice = errors.New("alarm references unknown device")
	// ErrUnknownField means an alarm references a sensor its device did not report.
	ErrUnknownField = errors.New("alarm references unknown field")
)

// SkipError explains why one alarm produced no event this cycle.
type SkipError struct {
	// Fingerprint identifies the skipped alarm rule.
	Fingerprint string
	// DeviceID and Field are the join keys that failed.
	DeviceID string
	Field    string
	// Err is ErrUnknownDevice or ErrUnknownField.
	Err error
}

// Error implements the error interface.
func (e *SkipError) Error() string {
	return fmt.Sprintf("skip alarm on device %q field %q: %v", e.DeviceID, e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SkipError) Unwrap() error {
	return e.Err
}

// Correlate turns every alarm of result into an Event for the device
// configured under nickname. Alarms whose device or field cannot be found
// are skipped and reported in skipped; they never produce an event.
func Correlate(nickname string, result *alarm.PollResult) (events []alarm.Event, skipped []error) {
	if result == nil {
		return nil, nil
	}

	events = make([]alarm.Event, 0, len(result.Alarms))
	display := alarm.Nickname(nickname)

	for i := range result.Alarms {
		descriptor := &result.Alarms[i]

		device, ok := result.Device(descriptor.DeviceID)
		if !ok {
			skipped = append(skipped, skip(descriptor, ErrUnknownDevice))
			continue
		}

		field, ok := device.Field(descriptor.Field)
		if !ok {
			skipped = append(skipped, skip(descriptor, ErrUnknownField))
			continue
		}

		events = append(events, alarm.Event{
			Fingerprint: descriptor.Fingerprint(),
			Nickname:    display,
			Tripped:     descriptor.Tripped(),
			StatusLine:  alarm.StatusLine(descriptor, field),
		})
	}

	return events, skipped
}

func skip(d *alarm.Descriptor, cause error) *SkipError {
	return &SkipError{
		Fingerprint: d.Fingerprint(),
		DeviceID:    d.DeviceID,
		Field:       d.Field,
		Err:         cause,
	}
}
