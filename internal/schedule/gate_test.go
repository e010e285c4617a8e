package schedule

import (
	"testing"
	"time"

	"enumguard/internal/config"
	"enumguard/internal/logging"
)

// 2026-03-02 is a Monday.
func at(hour, minute, second int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, second, 0, time.Local)
}

func daily() config.ScanStrategy {
	return config.ScanStrategy{Enabled: true, Mode: config.ModeDaily, Time: "12:30", Tolerance: 300}
}

func TestTimeWindowIsInclusive(t *testing.T) {
	logger := logging.NewNop()
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"window start", at(12, 25, 0), true},
		{"on time", at(12, 30, 0), true},
		{"window end", at(12, 35, 0), true},
		{"just early", at(12, 24, 59), false},
		{"just late", at(12, 35, 1), false},
	}
	for _, tc := range cases {
		got := Evaluate(daily(), tc.now, logger)
		if got.Allowed() != tc.want {
			t.Fatalf("%s: allowed=%v want %v (%+v)", tc.name, got.Allowed(), tc.want, got)
		}
	}
}

func TestDisabledAndManualNeverRun(t *testing.T) {
	logger := logging.NewNop()
	disabled := daily()
	disabled.Enabled = false
	if Evaluate(disabled, at(12, 30, 0), logger).Allowed() {
		t.Fatal("disabled strategy must never run")
	}
	manual := daily()
	manual.Mode = config.ModeManual
	if Evaluate(manual, at(12, 30, 0), logger).Allowed() {
		t.Fatal("manual mode must never run automatically")
	}
}

func TestWeeklyAndScheduledAreAliases(t *testing.T) {
	logger := logging.NewNop()
	for _, mode := range []string{config.ModeWeekly, config.ModeScheduled} {
		strategy := daily()
		strategy.Mode = mode
		strategy.Days = []string{"mon", "FRI", "bogus"}
		if !Evaluate(strategy, at(12, 30, 0), logger).Allowed() {
			t.Fatalf("%s: Monday should be allowed", mode)
		}
		tuesday := at(12, 30, 0).AddDate(0, 0, 1)
		if d := Evaluate(strategy, tuesday, logger); d.Allowed() || d.WeekdayPass {
			t.Fatalf("%s: Tuesday should be rejected, got %+v", mode, d)
		}
	}
}

func TestUnknownModeAndMalformedTimeFail(t *testing.T) {
	logger := logging.NewNop()
	unknown := daily()
	unknown.Mode = "hourly"
	if d := Evaluate(unknown, at(12, 30, 0), logger); d.WeekdayPass {
		t.Fatalf("unknown mode must fail the weekday check, got %+v", d)
	}
	malformed := daily()
	malformed.Time = "12h30"
	if d := Evaluate(malformed, at(12, 30, 0), logger); d.TimePass || !d.Scheduled.IsZero() {
		t.Fatalf("malformed time must fail the time check, got %+v", d)
	}
}

func TestParseDays(t *testing.T) {
	days := ParseDays([]string{" sun ", "Wed", "WED", "Funday"}, logging.NewNop())
	if len(days) != 2 {
		t.Fatalf("expected two weekdays, got %v", days)
	}
	for _, want := range []time.Weekday{time.Sunday, time.Wednesday} {
		if _, ok := days[want]; !ok {
			t.Fatalf("missing %s in %v", want, days)
		}
	}
}

func TestGateUsesInjectedClock(t *testing.T) {
	gate := NewGate(func() time.Time { return at(12, 31, 0) }, logging.NewNop())
	if !gate.Evaluate(daily()).Allowed() {
		t.Fatal("expected gate to pass")
	}
}

func TestIntervalReliable(t *testing.T) {
	if !IntervalReliable(time.Minute, 300) {
		t.Fatal("1m polling fits a 300s tolerance")
	}
	if IntervalReliable(10*time.Minute, 300) {
		t.Fatal("10m polling can miss a 300s tolerance window")
	}
	if IntervalReliable(0, 300) {
		t.Fatal("zero interval is not reliable")
	}
}
