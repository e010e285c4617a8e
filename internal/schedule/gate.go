// Package schedule decides whether an unattended invocation may run, from the
// scan_strategy weekday and time-of-day policy, and provides the polling loop
// that stands in for an external OS scheduler.
package schedule

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"enumguard/internal/config"
	"enumguard/internal/logging"
)

const timeLayout = "15:04"

var weekdays = map[string]time.Weekday{
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
	"Sat": time.Saturday,
	"Sun": time.Sunday,
}

// Decision is the outcome of one gate evaluation.
type Decision struct {
	At          time.Time
	WeekdayPass bool
	TimePass    bool
	// Scheduled is today's configured run time; zero when time is malformed.
	Scheduled time.Time
	Reason    string
}

// Allowed reports whether both checks passed.
func (d Decision) Allowed() bool {
	return d.WeekdayPass && d.TimePass
}

// Gate evaluates a strategy against a clock.
type Gate struct {
	now    func() time.Time
	logger *slog.Logger
}

// NewGate builds a gate. now defaults to time.Now.
func NewGate(now func() time.Time, logger *slog.Logger) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{now: now, logger: logging.NewComponentLogger(logger, "scheduler")}
}

// Evaluate checks strategy against the current time.
func (g *Gate) Evaluate(strategy config.ScanStrategy) Decision {
	decision := Evaluate(strategy, g.now(), g.logger)
	g.logger.Info("scheduler gate evaluated",
		logging.Bool("weekday_check", decision.WeekdayPass),
		logging.Bool("time_check", decision.TimePass),
		logging.Bool("allowed", decision.Allowed()),
		logging.String("reason", decision.Reason),
		logging.String(logging.FieldEventType, "gate_evaluated"),
	)
	return decision
}

// Evaluate checks strategy at now (local time). The gate is a window of
// tolerance seconds on either side of the configured time.
func Evaluate(strategy config.ScanStrategy, now time.Time, logger *slog.Logger) Decision {
	now = now.Local()
	decision := Decision{At: now}
	decision.WeekdayPass = weekdayAllowed(strategy, now.Weekday(), logger)
	decision.Scheduled, decision.TimePass = withinWindow(strategy, now, logger)

	switch {
	case !strategy.Enabled:
		decision.Reason = "scheduler disabled"
	case !decision.WeekdayPass:
		decision.Reason = "not a scheduled day"
	case !decision.TimePass:
		decision.Reason = "outside the scheduled time window"
	default:
		decision.Reason = "within schedule"
	}
	return decision
}

func weekdayAllowed(strategy config.ScanStrategy, today time.Weekday, logger *slog.Logger) bool {
	if !strategy.Enabled {
		return false
	}
	switch strategy.Mode {
	case config.ModeManual:
		return false
	case config.ModeDaily:
		return true
	case config.ModeWeekly, config.ModeScheduled:
		_, ok := ParseDays(strategy.Days, logger)[today]
		return ok
	default:
		logging.WarnWithContext(logger, "unsupported scheduler mode", "schedule_mode_invalid",
			logging.String("mode", strategy.Mode),
			logging.String(logging.FieldErrorHint, "use manual, daily, weekly or scheduled"),
			logging.String(logging.FieldImpact, "unattended runs are rejected"),
		)
		return false
	}
}

func withinWindow(strategy config.ScanStrategy, now time.Time, logger *slog.Logger) (time.Time, bool) {
	target, err := time.ParseInLocation(timeLayout, strings.TrimSpace(strategy.Time), now.Location())
	if err != nil {
		logging.WarnWithContext(logger, "scheduled time malformed", "schedule_time_invalid",
			logging.String("time", strategy.Time),
			logging.String("example", now.Format(timeLayout)),
			logging.String(logging.FieldErrorHint, "use HH:MM, for example 08:30"),
			logging.String(logging.FieldImpact, "unattended runs are rejected"),
		)
		return time.Time{}, false
	}
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), target.Hour(), target.Minute(), 0, 0, now.Location())
	delta := math.Abs(now.Sub(scheduled).Seconds())
	return scheduled, delta <= float64(strategy.Tolerance)
}

// ParseDays maps weekday tokens ("mon", "Tue", "SUN") to weekdays. Unknown
// tokens are logged and ignored.
func ParseDays(tokens []string, logger *slog.Logger) map[time.Weekday]struct{} {
	caser := cases.Title(language.English)
	days := make(map[time.Weekday]struct{}, len(tokens))
	for _, token := range tokens {
		day, ok := weekdays[caser.String(strings.TrimSpace(token))]
		if !ok {
			logging.WarnWithContext(logger, "unknown weekday token ignored", "schedule_day_invalid",
				logging.String("day", token),
				logging.String(logging.FieldErrorHint, "use Mon, Tue, Wed, Thu, Fri, Sat or Sun"),
				logging.String(logging.FieldImpact, "the token does not schedule a run"),
			)
			continue
		}
		days[day] = struct{}{}
	}
	return days
}

// IntervalReliable reports whether polling every interval is guaranteed to
// land inside a window of toleranceSeconds on either side of the run time.
func IntervalReliable(interval time.Duration, toleranceSeconds int) bool {
	return interval > 0 && interval < 2*time.Duration(toleranceSeconds)*time.Second
}
