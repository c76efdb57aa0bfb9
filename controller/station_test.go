package controller

import "testing"

func TestNumStations(t *testing.T) {
	cases := []struct {
		boards uint16
		want   int
	}{
		{0, 8},
		{1, 16},
		{24, 200},
		{30, MaxStations}, // clamped
	}
	for _, c := range cases {
		if got := NumStations(c.boards); got != c.want {
			t.Errorf("NumStations(%d) = %d, want %d", c.boards, got, c.want)
		}
	}
}

func TestIsMaster(t *testing.T) {
	if !IsMaster(0, 1, 0) {
		t.Error("station 0 should be master when mas=1")
	}
	if !IsMaster(3, 0, 4) {
		t.Error("station 3 should be master2 when mas2=4")
	}
	if IsMaster(0, 0, 0) {
		t.Error("no master configured means no station is master")
	}
	if IsMaster(1, 1, 0) {
		t.Error("station 1 should not be master when mas=1 (that's station 0)")
	}
}

func TestMasterOf(t *testing.T) {
	if slot, ok := MasterOf(0, 1, 0); !ok || slot != 1 {
		t.Errorf("MasterOf(0, 1, 0) = (%d, %v), want (1, true)", slot, ok)
	}
	if slot, ok := MasterOf(3, 0, 4); !ok || slot != 2 {
		t.Errorf("MasterOf(3, 0, 4) = (%d, %v), want (2, true)", slot, ok)
	}
	if _, ok := MasterOf(0, 0, 0); ok {
		t.Error("expected no master slot when none is configured")
	}
	if _, ok := MasterOf(1, 1, 0); ok {
		t.Error("station 1 should not be a master when mas=1 (that's station 0)")
	}
}

func TestDefaultStationName(t *testing.T) {
	if got := DefaultStationName(0); got != "S01" {
		t.Errorf("expected S01, got %s", got)
	}
	if got := DefaultStationName(11); got != "S12" {
		t.Errorf("expected S12, got %s", got)
	}
}

func TestParseRF(t *testing.T) {
	s := Station{Sped: "0A0B0C" + "0D0E0F" + "1234"}
	rf, err := s.ParseRF()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rf.On != 0x0A0B0C || rf.Off != 0x0D0E0F || rf.Timing != 0x1234 {
		t.Errorf("unexpected parse result: %+v", rf)
	}
}

func TestParseRFTooShort(t *testing.T) {
	if _, err := (Station{Sped: "abc"}).ParseRF(); err == nil {
		t.Error("expected error for too-short RF payload")
	}
}

func TestParseGPIO(t *testing.T) {
	s := Station{Sped: "17" + "1"}
	g, err := s.ParseGPIO()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Pin != 17 || !g.Active {
		t.Errorf("unexpected parse result: %+v", g)
	}
}

func TestParseHTTP(t *testing.T) {
	s := Station{Sped: "host.example.com,8080,/on,/off"}
	h, err := s.ParseHTTP()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Server != "host.example.com" || h.Port != "8080" || h.OnCmd != "/on" || h.OffCmd != "/off" {
		t.Errorf("unexpected parse result: %+v", h)
	}
}

func TestParseRemote(t *testing.T) {
	s := Station{Sped: "C0A80001" + "1F90" + "03"}
	r, err := s.ParseRemote()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.IP != [4]byte{0xC0, 0xA8, 0x00, 0x01} || r.Port != 0x1F90 || r.SID != 3 {
		t.Errorf("unexpected parse result: %+v", r)
	}
}
