package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"loopcal-go/types"
)

var (
	_ Store = (*Memory)(nil)
	_ Store = (*File)(nil)
)

func sampleSystem() types.SystemSettings {
	return types.SystemSettings{
		Current: types.CalibrationValue{Code2: 13104, Value2: 20000, Scale: 10000, Gain: 15263},
		Voltage: types.CalibrationValue{Code2: 13104, Value2: 20000, Scale: 10000, Gain: 15263},
		Output:  types.CalibrationValue{Code2: 3276, Value2: 20000, Scale: 10000, Gain: 61050},
	}
}

func sampleUser() types.UserSettings {
	return types.UserSettings{
		Setpoints:     []int32{4000, 12000},
		ActiveProfile: 1,
		Waveform:      "tri",
		PeriodMs:      2000,
		WaveMinUA:     4000,
		WaveMaxUA:     20000,
		TotalCycles:   10,
	}
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	if _, err := s.LoadSystem(); err != ErrNotFound {
		t.Fatalf("empty system: %v", err)
	}
	if _, err := s.LoadUser(); err != ErrNotFound {
		t.Fatalf("empty user: %v", err)
	}

	if err := s.SaveSystem(sampleSystem()); err != nil {
		t.Fatal(err)
	}
	u := sampleUser()
	if err := s.SaveUser(u); err != nil {
		t.Fatal(err)
	}
	u.Setpoints[0] = 1 // caller mutation must not leak into the store

	sys, err := s.LoadSystem()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sampleSystem(), sys); diff != "" {
		t.Fatalf("system mismatch (-want +got):\n%s", diff)
	}
	got, err := s.LoadUser()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sampleUser(), got); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	exercise(t, NewFile(path))

	// A second instance sees the same document.
	got, err := NewFile(path).LoadUser()
	if err != nil || got.TotalCycles != 10 {
		t.Fatalf("reopen: %+v %v", got, err)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path).LoadSystem(); err == nil || err == ErrNotFound {
		t.Fatalf("expected parse error, got %v", err)
	}
}
