package backend

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryDirectory is an in-process Directory used by tests and local
// development. All matching mirrors the production queries: fuzzy name,
// exact DOB, cancelled and no-show appointments excluded.
type MemoryDirectory struct {
	mu           sync.RWMutex
	patients     map[string][]Patient
	providers    map[string][]Provider
	appointments map[string][]Appointment
	approvals    []Approval
	insured      map[string]map[string]bool
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		patients:     make(map[string][]Patient),
		providers:    make(map[string][]Provider),
		appointments: make(map[string][]Appointment),
		insured:      make(map[string]map[string]bool),
	}
}

func (d *MemoryDirectory) AddPatient(tenantID string, p Patient) {
	d.mu.Lock()
	d.patients[tenantID] = append(d.patients[tenantID], p)
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddProvider(tenantID string, p Provider) {
	d.mu.Lock()
	d.providers[tenantID] = append(d.providers[tenantID], p)
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddAppointment(tenantID string, a Appointment) {
	d.mu.Lock()
	d.appointments[tenantID] = append(d.appointments[tenantID], a)
	d.mu.Unlock()
}

func (d *MemoryDirectory) SetInsurance(tenantID, patientID string, has bool) {
	d.mu.Lock()
	if d.insured[tenantID] == nil {
		d.insured[tenantID] = make(map[string]bool)
	}
	d.insured[tenantID][patientID] = has
	d.mu.Unlock()
}

func (d *MemoryDirectory) FindPatient(ctx context.Context, tenantID, name, dob string) (*Patient, error) {
	first, last := SplitName(name)
	var dobNorm string
	if dob != "" {
		t, err := ParseDate(dob)
		if err != nil {
			return nil, nil
		}
		dobNorm = t.Format("2006-01-02")
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := range d.patients[tenantID] {
		p := d.patients[tenantID][i]
		if dobNorm != "" {
			pt, err := ParseDate(p.DOB)
			if err != nil || pt.Format("2006-01-02") != dobNorm {
				continue
			}
		}
		if !containsFold(p.FirstName, first) {
			continue
		}
		if last != "" && !containsFold(p.LastName, last) {
			continue
		}
		return &p, nil
	}
	return nil, nil
}

func (d *MemoryDirectory) DefaultProvider(ctx context.Context, tenantID string) (*Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := range d.providers[tenantID] {
		if d.providers[tenantID][i].Active {
			p := d.providers[tenantID][i]
			return &p, nil
		}
	}
	return nil, nil
}

func (d *MemoryDirectory) AppointmentsOn(ctx context.Context, tenantID, providerID string, day time.Time) ([]Appointment, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Appointment
	for _, a := range d.appointments[tenantID] {
		if a.ProviderID != providerID || a.Status == StatusCancelled || a.Status == StatusNoShow {
			continue
		}
		if sameDay(a.Start, day) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (d *MemoryDirectory) FindAppointmentByDate(ctx context.Context, tenantID, patientID string, day time.Time) (*Appointment, error) {
	if day.IsZero() {
		day = time.Now()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	var found *Appointment
	for i := range d.appointments[tenantID] {
		a := d.appointments[tenantID][i]
		if a.PatientID != patientID || a.Status == StatusCancelled || a.Status == StatusNoShow {
			continue
		}
		if !sameDay(a.Start, day) {
			continue
		}
		if found == nil || a.Start.After(found.Start) {
			copied := a
			found = &copied
		}
	}
	return found, nil
}

func (d *MemoryDirectory) CreateApproval(ctx context.Context, approval Approval) error {
	d.mu.Lock()
	d.approvals = append(d.approvals, approval)
	d.mu.Unlock()
	return nil
}

func (d *MemoryDirectory) Approvals() []Approval {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Approval, len(d.approvals))
	copy(out, d.approvals)
	return out
}

func (d *MemoryDirectory) HasInsurance(ctx context.Context, tenantID, patientID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.insured[tenantID][patientID], nil
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
