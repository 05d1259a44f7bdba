package device

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"golang.org/x/net/html/charset"

	"github.com/oshokin/goose-belt/internal/domain/alarm"
)

// document mirrors the parts of data.xml the agent reads. Repeated child
// elements decode into slices, so one <device> and many <device> elements
// come out the same shape.
type document struct {
	XMLName xml.Name    `xml:"server"`
	Devices *deviceList `xml:"devices"`
	Alarms  *alarmList  `xml:"alarms"`
}

type deviceList struct {
	Devices []deviceElement `xml:"device"`
}

type deviceElement struct {
	ID     string         `xml:"id,attr"`
	Fields []fieldElement `xml:"field"`
}

type fieldElement struct {
	Key      string `xml:"key,attr"`
	NiceName string `xml:"niceName,attr"`
	Value    string `xml:"value,attr"`
}

type alarmList struct {
	Alarms []alarmElement `xml:"alarm"`
}

type alarmElement struct {
	Num       string `xml:"alarm-num,attr"`
	DeviceID  string `xml:"device-id,attr"`
	Field     string `xml:"field,attr"`
	LimitType string `xml:"limtype,attr"`
	Limit     string `xml:"limit,attr"`
	Delay     string `xml:"delay,attr"`
	Repeat    string `xml:"repeat,attr"`
	Email     string `xml:"email,attr"`
	Actions   string `xml:"actions,attr"`
	Status    string `xml:"status,attr"`
}

// Parse decodes a data.xml document. A document whose root is not <server>
// or that lacks <devices> or <alarms> is rejected with ErrParse.
func Parse(data []byte) (*alarm.PollResult, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	// Older firmware declares ISO-8859-1.
	decoder.CharsetReader = charset.NewReaderLabel

	var doc document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if doc.Devices == nil {
		return nil, fmt.Errorf("%w: missing server.devices", ErrParse)
	}

	if doc.Alarms == nil {
		return nil, fmt.Errorf("%w: missing server.alarms", ErrParse)
	}

	result := &alarm.PollResult{
		Devices: make([]alarm.Device, 0, len(doc.Devices.Devices)),
		Alarms:  make([]alarm.Descriptor, 0, len(doc.Alarms.Alarms)),
	}

	for _, d := range doc.Devices.Devices {
		fields := make(map[string]alarm.Field, len(d.Fields))

		for _, f := range d.Fields {
			// First occurrence wins, as a lookup by key would find it.
			if _, seen := fields[f.Key]; seen {
				continue
			}

			fields[f.Key] = alarm.Field{
				Key:      f.Key,
				NiceName: f.NiceName,
				Value:    f.Value,
			}
		}

		result.Devices = append(result.Devices, alarm.Device{
			ID:     d.ID,
			Fields: fields,
		})
	}

	for _, a := range doc.Alarms.Alarms {
		result.Alarms = append(result.Alarms, alarm.Descriptor{
			Num:         a.Num,
			DeviceID:    a.DeviceID,
			Field:       a.Field,
			LimitType:   a.LimitType,
			Limit:       a.Limit,
			Delay:       a.Delay,
			RepeatCount: a.Repeat,
			Email:       a.Email,
			Actions:     a.Actions,
			Status:      a.Status,
		})
	}

	return result, nil
}
