// internal/store/snapshots.go
package store

import (
	"context"
	"fmt"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"
)

// Snapshot loaders return full collections ordered by id; filtering,
// sorting and pagination happen in the query pipeline, not in SQL.

// ListDevices loads the full device snapshot.
func (s *Store) ListDevices(ctx context.Context) ([]models.Device, error) {
	const query = `
		SELECT id, name, factory, firmware, status, ticket, last_seen
		FROM devices
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.ID, &d.Name, &d.Factory, &d.Firmware, &d.Status, &d.Ticket, &d.LastSeen); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// ListFirmwareEvents loads the full firmware event snapshot.
func (s *Store) ListFirmwareEvents(ctx context.Context) ([]models.FirmwareEvent, error) {
	const query = `
		SELECT id, device_id, version, status, started_at, completed_at
		FROM firmware_events
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list firmware events: %w", err)
	}
	defer rows.Close()

	var events []models.FirmwareEvent
	for rows.Next() {
		var e models.FirmwareEvent
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.Version, &e.Status, &e.StartedAt, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan firmware event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListHosts loads the full host snapshot.
func (s *Store) ListHosts(ctx context.Context) ([]models.Host, error) {
	const query = `
		SELECT id, name, ip, os, uptime, cpu, ram, disk, updated_at
		FROM hosts
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []models.Host
	for rows.Next() {
		var h models.Host
		if err := rows.Scan(&h.ID, &h.Name, &h.IP, &h.OS, &h.Uptime, &h.CPU, &h.RAM, &h.Disk, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan host: %w", err)
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

// ListVMs loads the full VM snapshot.
func (s *Store) ListVMs(ctx context.Context) ([]models.VM, error) {
	const query = `
		SELECT id, name, host, machine_id, ip, os, status, last_seen
		FROM vms
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vms: %w", err)
	}
	defer rows.Close()

	var vms []models.VM
	for rows.Next() {
		var v models.VM
		if err := rows.Scan(&v.ID, &v.Name, &v.Host, &v.MachineID, &v.IP, &v.OS, &v.Status, &v.LastSeen); err != nil {
			return nil, fmt.Errorf("scan vm: %w", err)
		}
		vms = append(vms, v)
	}
	return vms, rows.Err()
}
