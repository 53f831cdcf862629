package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"
)

const pollInterval = 60 * time.Second

// CollectFunc runs one collection pass
type CollectFunc func(ctx context.Context) error

// TargetTime is a wall-clock time of day
type TargetTime struct {
	Hour   int
	Minute int
}

// ParseTargetTime parses "HH:MM". Invalid input is a startup error.
func ParseTargetTime(s string) (TargetTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TargetTime{}, fmt.Errorf("invalid time format %q, use HH:MM (e.g. 16:30)", s)
	}
	return TargetTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Reached reports whether the given moment is at or past the target time
func (t TargetTime) Reached(now time.Time) bool {
	return now.Hour() > t.Hour || (now.Hour() == t.Hour && now.Minute() >= t.Minute)
}

// Scheduler triggers a collection once per trading day after local time
// crosses the target. Weekends are skipped. The loop polls rather than
// sleeping until the target so a process started after the target time still
// fires the same day.
type Scheduler struct {
	target  TargetTime
	collect CollectFunc

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a Scheduler for the given "HH:MM" target time
func New(targetTime string, collect CollectFunc) (*Scheduler, error) {
	target, err := ParseTargetTime(targetTime)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		target:  target,
		collect: collect,
		now:     time.Now,
		sleep:   sleepCtx,
	}, nil
}

// Run polls until the context is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("[INFO] daily collection scheduler started, target time %02d:%02d",
		s.target.Hour, s.target.Minute)

	ranToday := false
	lastCheckDate := dateOf(s.now())

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] scheduler stopped")
			return nil
		default:
		}

		now := s.now()
		if today := dateOf(now); today != lastCheckDate {
			ranToday = false
			lastCheckDate = today
			log.Printf("[INFO] new day detected: %s", today)
		}

		if !ranToday && s.target.Reached(now) && isWeekday(now) {
			log.Printf("[INFO] starting collection at %s", now.Format("15:04:05"))
			if err := s.collect(ctx); err != nil {
				log.Printf("[ERROR] collection failed: %v", err)
			} else {
				log.Printf("[INFO] collection completed, waiting for next day")
			}
			ranToday = true
		}

		s.sleep(ctx, pollInterval)
	}
}

// RunOnce triggers a single collection immediately
func (s *Scheduler) RunOnce(ctx context.Context) error {
	log.Printf("[INFO] running collection once")
	return s.collect(ctx)
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func dateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
