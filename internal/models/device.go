// internal/models/device.go
package models

import "github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"

// Device is one factory-floor device row as served by the devices page.
// Timestamps travel as strings in the fixed "2006-01-02 15:04:05" layout.
type Device struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Factory  string `json:"factory" db:"factory"`
	Firmware string `json:"firmware" db:"firmware"`
	Status   string `json:"status" db:"status"`
	Ticket   string `json:"ticket" db:"ticket"`
	LastSeen string `json:"lastSeen" db:"last_seen"`
}

// ToRecord flattens the device into the column order declared for the
// devices collection.
func (d Device) ToRecord() pipeline.Record {
	return pipeline.NewRecord(
		pipeline.Field{Name: "id", Value: d.ID},
		pipeline.Field{Name: "name", Value: d.Name},
		pipeline.Field{Name: "factory", Value: d.Factory},
		pipeline.Field{Name: "firmware", Value: d.Firmware},
		pipeline.Field{Name: "status", Value: d.Status},
		pipeline.Field{Name: "ticket", Value: d.Ticket},
		pipeline.Field{Name: "last_seen", Value: d.LastSeen},
	)
}

// DeviceRecords converts a device slice preserving order.
func DeviceRecords(devices []Device) []pipeline.Record {
	out := make([]pipeline.Record, len(devices))
	for i, d := range devices {
		out[i] = d.ToRecord()
	}
	return out
}
