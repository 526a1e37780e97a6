// internal/models/vm.go
package models

import "github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"

// VM status values as reported by the poller.
const (
	VMStatusRunning = "running"
	VMStatusStopped = "stopped"
	VMStatusDown    = "down"
)

// VM is one virtual machine row. Host names the hypervisor the VM runs on.
type VM struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Host      string `json:"host" db:"host"`
	MachineID string `json:"machineId" db:"machine_id"`
	IP        string `json:"ip" db:"ip"`
	OS        string `json:"os" db:"os"`
	Status    string `json:"status" db:"status"`
	LastSeen  string `json:"lastSeen" db:"last_seen"`
}

// ToRecord flattens the VM into the column order declared for the vms
// collection.
func (v VM) ToRecord() pipeline.Record {
	return pipeline.NewRecord(
		pipeline.Field{Name: "id", Value: v.ID},
		pipeline.Field{Name: "name", Value: v.Name},
		pipeline.Field{Name: "host", Value: v.Host},
		pipeline.Field{Name: "machine_id", Value: v.MachineID},
		pipeline.Field{Name: "ip", Value: v.IP},
		pipeline.Field{Name: "os", Value: v.OS},
		pipeline.Field{Name: "status", Value: v.Status},
		pipeline.Field{Name: "last_seen", Value: v.LastSeen},
	)
}

// VMRecords converts a VM slice preserving order.
func VMRecords(vms []VM) []pipeline.Record {
	out := make([]pipeline.Record, len(vms))
	for i, v := range vms {
		out[i] = v.ToRecord()
	}
	return out
}
