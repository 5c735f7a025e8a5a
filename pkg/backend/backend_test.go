package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func seedDirectory() *MemoryDirectory {
	d := NewMemoryDirectory()
	d.AddPatient("t1", Patient{ID: "p1", FirstName: "Jane", LastName: "Doe", DOB: "1985-01-15"})
	d.AddPatient("t1", Patient{ID: "p2", FirstName: "John", LastName: "Smith", DOB: "1990-06-02"})
	d.AddProvider("t1", Provider{
		ID: "prov1", Name: "Dr. Smith", Active: true,
		WorkingHours: map[string]DayHours{
			"monday": {Start: "08:00", End: "17:00"},
		},
	})
	return d
}

func TestFindPatientFuzzyNameExactDOB(t *testing.T) {
	d := seedDirectory()
	ctx := context.Background()

	p, err := d.FindPatient(ctx, "t1", "jane doe", "01/15/1985")
	if err != nil || p == nil || p.ID != "p1" {
		t.Fatalf("expected p1, got %+v err %v", p, err)
	}

	// Wrong DOB must not match even with the right name.
	p, _ = d.FindPatient(ctx, "t1", "jane doe", "02/20/1990")
	if p != nil {
		t.Fatalf("expected no match on wrong dob, got %+v", p)
	}

	// First name only still matches when no DOB given.
	p, _ = d.FindPatient(ctx, "t1", "Jane", "")
	if p == nil || p.ID != "p1" {
		t.Fatalf("expected first-name match, got %+v", p)
	}

	// Unknown tenant finds nothing.
	p, _ = d.FindPatient(ctx, "t2", "Jane Doe", "")
	if p != nil {
		t.Fatalf("expected tenant isolation, got %+v", p)
	}
}

func TestFindAppointmentByDateSkipsCancelled(t *testing.T) {
	d := seedDirectory()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	d.AddAppointment("t1", Appointment{
		ID: "a1", PatientID: "p1", ProviderID: "prov1",
		Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 30*time.Minute),
		Duration: 30, Status: StatusCancelled,
	})
	d.AddAppointment("t1", Appointment{
		ID: "a2", PatientID: "p1", ProviderID: "prov1",
		Start: day.Add(14 * time.Hour), End: day.Add(14*time.Hour + 30*time.Minute),
		Duration: 30, Status: StatusScheduled,
	})

	got, err := d.FindAppointmentByDate(context.Background(), "t1", "p1", day)
	if err != nil || got == nil || got.ID != "a2" {
		t.Fatalf("expected a2, got %+v err %v", got, err)
	}
}

func TestAppointmentsOnOrdered(t *testing.T) {
	d := seedDirectory()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	d.AddAppointment("t1", Appointment{ID: "late", ProviderID: "prov1", Start: day.Add(15 * time.Hour), End: day.Add(16 * time.Hour), Status: StatusScheduled})
	d.AddAppointment("t1", Appointment{ID: "early", ProviderID: "prov1", Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour), Status: StatusScheduled})

	got, err := d.AppointmentsOn(context.Background(), "t1", "prov1", day)
	if err != nil || len(got) != 2 {
		t.Fatalf("expected 2 appointments, got %d err %v", len(got), err)
	}
	if got[0].ID != "early" || got[1].ID != "late" {
		t.Fatalf("expected start-time order, got %s then %s", got[0].ID, got[1].ID)
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in          string
		first, last string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"Jane", "Jane", ""},
		{"Mary Jo Smith", "Mary", "Jo Smith"},
		{"  ", "", ""},
	}
	for _, tc := range cases {
		first, last := SplitName(tc.in)
		if first != tc.first || last != tc.last {
			t.Fatalf("%q: got %q/%q", tc.in, first, last)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"(555) 123-4567": "+15551234567",
		"5551234567":     "+15551234567",
		"+442079461100":  "+442079461100",
		"":               "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("%q: got %q want %q", in, got, want)
		}
	}
}

func TestParseDateShapes(t *testing.T) {
	for _, in := range []string{"1985-01-15", "01/15/1985", "January 15, 1985"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got.Year() != 1985 || got.Month() != time.January || got.Day() != 15 {
			t.Fatalf("%q: got %v", in, got)
		}
	}
	if _, err := ParseDate("the ides of march"); err == nil {
		t.Fatalf("expected parse failure")
	}
}

func TestRegistrationClientCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/register/voice-intake" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Service-Key") != "svc-key" {
			t.Errorf("missing service key")
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["phone"] != "+15551234567" {
			t.Errorf("phone not normalized: %v", body["phone"])
		}
		if body["dateOfBirth"] != "1985-01-15" {
			t.Errorf("dob not normalized: %v", body["dateOfBirth"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"registrationTokenId": "tok-1",
			"registrationUrl":     "https://register.example/t/tok-1",
		})
	}))
	defer srv.Close()

	c := NewRegistrationClient(srv.URL, "svc-key")
	got, err := c.CreateRegistration(context.Background(), "t1", RegistrationIntake{
		Phone:       "(555) 123-4567",
		FirstName:   "Jane",
		LastName:    "Doe",
		DateOfBirth: "January 15, 1985",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TokenID != "tok-1" || got.URL == "" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestRegistrationClientStatusMissingIsInactive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewRegistrationClient(srv.URL, "")
	got, err := c.RegistrationStatus(context.Background(), "t1", "5551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Active {
		t.Fatalf("expected inactive status")
	}
}

func TestRegistrationClientStatusActive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"hasActiveRegistration": true,
			"stage":                 StageSMSSent,
		})
	}))
	defer srv.Close()

	c := NewRegistrationClient(srv.URL, "")
	got, err := c.RegistrationStatus(context.Background(), "t1", "5551234567")
	if err != nil || !got.Active || got.Stage != StageSMSSent {
		t.Fatalf("unexpected status %+v err %v", got, err)
	}
}
