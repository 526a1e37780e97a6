// internal/models/firmware_event.go
package models

import "github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"

// FirmwareEvent records one firmware rollout attempt against a device.
type FirmwareEvent struct {
	ID          int64  `json:"id" db:"id"`
	DeviceID    int64  `json:"deviceId" db:"device_id"`
	Version     string `json:"version" db:"version"`
	Status      string `json:"status" db:"status"`
	StartedAt   string `json:"startedAt" db:"started_at"`
	CompletedAt string `json:"completedAt" db:"completed_at"`
}

// ToRecord flattens the event into the column order declared for the
// firmware_events collection.
func (e FirmwareEvent) ToRecord() pipeline.Record {
	return pipeline.NewRecord(
		pipeline.Field{Name: "id", Value: e.ID},
		pipeline.Field{Name: "device_id", Value: e.DeviceID},
		pipeline.Field{Name: "version", Value: e.Version},
		pipeline.Field{Name: "status", Value: e.Status},
		pipeline.Field{Name: "started_at", Value: e.StartedAt},
		pipeline.Field{Name: "completed_at", Value: e.CompletedAt},
	)
}

// FirmwareEventRecords converts an event slice preserving order.
func FirmwareEventRecords(events []FirmwareEvent) []pipeline.Record {
	out := make([]pipeline.Record, len(events))
	for i, e := range events {
		out[i] = e.ToRecord()
	}
	return out
}
