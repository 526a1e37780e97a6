// internal/models/host.go
package models

import "github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"

// Host is one hypervisor host row. CPU, RAM and disk are utilization
// percentages; uptime is seconds since boot.
type Host struct {
	ID        int64   `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	IP        string  `json:"ip" db:"ip"`
	OS        string  `json:"os" db:"os"`
	Uptime    int64   `json:"uptime" db:"uptime"`
	CPU       float64 `json:"cpu" db:"cpu"`
	RAM       float64 `json:"ram" db:"ram"`
	Disk      float64 `json:"disk" db:"disk"`
	UpdatedAt string  `json:"updatedAt" db:"updated_at"`
}

// ToRecord flattens the host into the column order declared for the hosts
// collection.
func (h Host) ToRecord() pipeline.Record {
	return pipeline.NewRecord(
		pipeline.Field{Name: "id", Value: h.ID},
		pipeline.Field{Name: "name", Value: h.Name},
		pipeline.Field{Name: "ip", Value: h.IP},
		pipeline.Field{Name: "os", Value: h.OS},
		pipeline.Field{Name: "uptime", Value: h.Uptime},
		pipeline.Field{Name: "cpu", Value: h.CPU},
		pipeline.Field{Name: "ram", Value: h.RAM},
		pipeline.Field{Name: "disk", Value: h.Disk},
		pipeline.Field{Name: "updated_at", Value: h.UpdatedAt},
	)
}

// HostRecords converts a host slice preserving order.
func HostRecords(hosts []Host) []pipeline.Record {
	out := make([]pipeline.Record, len(hosts))
	for i, h := range hosts {
		out[i] = h.ToRecord()
	}
	return out
}
