package checkin

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func hobbsReadings(t *testing.T, start, end string) MeterReadings {
	t.Helper()
	return MeterReadings{HobbsStart: nd(t, start), HobbsEnd: nd(t, end)}
}

func TestComputeSplit_SoloFlightIsAllSolo(t *testing.T) {
	split, err := ComputeSplit(BasisHobbs, InstructionSolo, false, hobbsReadings(t, "100.0", "102.0"))
	if err != nil {
		t.Fatalf("compute split: %v", err)
	}
	if !split.Total.Equal(d(t, "2.0")) || !split.Solo.Equal(d(t, "2.0")) || !split.Dual.IsZero() {
		t.Fatalf("expected total=solo=2.0 dual=0, got %+v", split)
	}
}

func TestComputeSplit_TrialWithoutSplitIsAllDual(t *testing.T) {
	split, err := ComputeSplit(BasisHobbs, InstructionTrial, false, hobbsReadings(t, "100.0", "102.0"))
	if err != nil {
		t.Fatalf("compute split: %v", err)
	}
	if !split.Total.Equal(d(t, "2.0")) || !split.Dual.Equal(d(t, "2.0")) || !split.Solo.IsZero() {
		t.Fatalf("expected total=dual=2.0 solo=0, got %+v", split)
	}
}

func TestComputeSplit_DualWithSoloAtEnd(t *testing.T) {
	readings := MeterReadings{
		HobbsStart:   nd(t, "100.0"),
		HobbsEnd:     nd(t, "101.5"),
		HobbsSoloEnd: nd(t, "103.0"),
	}
	split, err := ComputeSplit(BasisHobbs, InstructionDual, true, readings)
	if err != nil {
		t.Fatalf("compute split: %v", err)
	}
	if !split.Dual.Equal(d(t, "1.5")) {
		t.Fatalf("expected dual 1.5, got %s", split.Dual)
	}
	if !split.Solo.Equal(d(t, "1.5")) {
		t.Fatalf("expected solo 1.5, got %s", split.Solo)
	}
	if !split.Total.Equal(d(t, "3.0")) {
		t.Fatalf("expected total 3.0, got %s", split.Total)
	}
}

func TestComputeSplit_DualPlusSoloAlwaysEqualsTotal(t *testing.T) {
	// Deltas that round individually must still reconcile exactly.
	readings := MeterReadings{
		TachoStart:   nd(t, "50.00"),
		TachoEnd:     nd(t, "51.27"),
		TachoSoloEnd: nd(t, "52.41"),
	}
	split, err := ComputeSplit(BasisTacho, InstructionDual, true, readings)
	if err != nil {
		t.Fatalf("compute split: %v", err)
	}
	if !split.Dual.Add(split.Solo).Equal(split.Total) {
		t.Fatalf("dual+solo must equal total exactly: %s + %s != %s", split.Dual, split.Solo, split.Total)
	}
}

func TestComputeSplit_MissingSplitReadings(t *testing.T) {
	cases := []struct {
		name     string
		readings MeterReadings
		want     string
	}{
		{"missing start", MeterReadings{HobbsEnd: nd(t, "101.0"), HobbsSoloEnd: nd(t, "102.0")}, "start reading is required"},
		{"missing dual end", MeterReadings{HobbsStart: nd(t, "100.0"), HobbsSoloEnd: nd(t, "102.0")}, "dual-end reading is required"},
		{"missing solo end", MeterReadings{HobbsStart: nd(t, "100.0"), HobbsEnd: nd(t, "101.0")}, "solo-end reading is required"},
	}
	for _, tc := range cases {
		_, err := ComputeSplit(BasisHobbs, InstructionDual, true, tc.readings)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected %q in error, got %q", tc.name, tc.want, err)
		}
	}
}

func TestComputeSplit_OutOfOrderReadings(t *testing.T) {
	readings := MeterReadings{
		HobbsStart:   nd(t, "101.0"),
		HobbsEnd:     nd(t, "100.0"),
		HobbsSoloEnd: nd(t, "102.0"),
	}
	_, err := ComputeSplit(BasisHobbs, InstructionDual, true, readings)
	if err == nil || !strings.Contains(err.Error(), "before the start reading") {
		t.Fatalf("expected dual-end ordering error, got %v", err)
	}

	readings = MeterReadings{
		HobbsStart:   nd(t, "100.0"),
		HobbsEnd:     nd(t, "102.0"),
		HobbsSoloEnd: nd(t, "101.0"),
	}
	_, err = ComputeSplit(BasisHobbs, InstructionDual, true, readings)
	if err == nil || !strings.Contains(err.Error(), "before the dual-end reading") {
		t.Fatalf("expected solo-end ordering error, got %v", err)
	}
}

func TestComputeSplit_AirswitchIsUnsupported(t *testing.T) {
	readings := MeterReadings{AirswitchStart: nd(t, "10.0"), AirswitchEnd: nd(t, "12.0")}
	split, err := ComputeSplit(BasisAirswitch, InstructionDual, false, readings)
	if err != ErrAirswitchUnsupported {
		t.Fatalf("expected ErrAirswitchUnsupported, got %v", err)
	}
	if !split.Total.IsZero() {
		t.Fatalf("expected zero billable hours, got %s", split.Total)
	}
}

func TestComputeSplit_NoBasis(t *testing.T) {
	_, err := ComputeSplit(BasisNone, InstructionDual, false, MeterReadings{})
	if err != ErrNoChargeBasis {
		t.Fatalf("expected ErrNoChargeBasis, got %v", err)
	}
}

func TestClearOutsideBasis(t *testing.T) {
	readings := MeterReadings{
		HobbsStart: nd(t, "100.0"), HobbsEnd: nd(t, "102.0"), HobbsSoloEnd: nd(t, "103.0"),
		TachoStart: nd(t, "50.0"), TachoEnd: nd(t, "51.0"),
		AirswitchStart: nd(t, "1.0"), AirswitchEnd: nd(t, "2.0"),
	}

	cleared := readings.ClearOutsideBasis(BasisHobbs, InstructionDual)
	if !cleared.HobbsStart.Valid || !cleared.HobbsSoloEnd.Valid {
		t.Fatalf("hobbs readings must survive, got %+v", cleared)
	}
	if cleared.TachoStart.Valid || cleared.AirswitchStart.Valid {
		t.Fatalf("other-basis readings must be cleared, got %+v", cleared)
	}

	cleared = readings.ClearOutsideBasis(BasisHobbs, InstructionSolo)
	if cleared.HobbsSoloEnd.Valid {
		t.Fatalf("solo-end must be cleared for pure solo flights")
	}
	if !cleared.HobbsStart.Valid || !cleared.HobbsEnd.Valid {
		t.Fatalf("active-basis start/end must survive for solo flights")
	}
}

func TestSplitZeroHasZeroDecimals(t *testing.T) {
	split, err := ComputeSplit(BasisHobbs, InstructionSolo, false, MeterReadings{})
	if err != nil {
		t.Fatalf("compute split: %v", err)
	}
	if !split.Total.Equal(decimal.Zero) {
		t.Fatalf("expected zero total for missing readings, got %s", split.Total)
	}
}
