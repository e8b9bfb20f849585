// Package schedule triggers a job at fixed UTC times of day
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/raykavin/greenscan/pkg/logger"
	"github.com/samber/lo"
)

var ErrInvalidTime = errors.New("invalid time of day, expected HH:MM")

// TimeOfDay is a UTC wall clock time
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTime parses a HH:MM time of day
func ParseTime(value string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// ParseTimes parses every value, dropping duplicates, sorted by time of day
func ParseTimes(values []string) ([]TimeOfDay, error) {
	times := make([]TimeOfDay, 0, len(values))
	for _, value := range values {
		t, err := ParseTime(value)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}

	times = lo.Uniq(times)
	sort.Slice(times, func(i, j int) bool {
		return minutes(times[i]) < minutes(times[j])
	})
	return times, nil
}

func minutes(t TimeOfDay) int { return t.Hour*60 + t.Minute }

// Next returns the first occurrence of any of times strictly after now
func Next(now time.Time, times []TimeOfDay) time.Time {
	now = now.UTC()
	var next time.Time
	for _, t := range times {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, time.UTC)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// Job is invoked at every scheduled time
type Job func(ctx context.Context)

// Scheduler runs a job daily at a set of UTC times
type Scheduler struct {
	times []TimeOfDay
	job   Job
	log   logger.Logger

	now   func() time.Time
	after func(d time.Duration) <-chan time.Time

	wg sync.WaitGroup
}

// Option is a function that configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces the time source and the timer used to wait for the next run
func WithClock(now func() time.Time, after func(d time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
		s.after = after
	}
}

// New creates a scheduler for the HH:MM UTC times
func New(times []string, job Job, log logger.Logger, options ...Option) (*Scheduler, error) {
	parsed, err := ParseTimes(times)
	if err != nil {
		return nil, err
	}

	scheduler := &Scheduler{
		times: parsed,
		job:   job,
		log:   log,
		now:   time.Now,
		after: time.After,
	}

	for _, option := range options {
		option(scheduler)
	}

	return scheduler, nil
}

// Run blocks until ctx is done, starting the job at every scheduled time.
// Jobs run in their own goroutine and Run waits for them before returning.
func (s *Scheduler) Run(ctx context.Context) {
	defer s.wg.Wait()

	if len(s.times) == 0 {
		s.log.Info("no scheduled scans configured")
		<-ctx.Done()
		return
	}

	for {
		now := s.now()
		next := Next(now, s.times)
		s.log.WithField("next_run", next.Format("2006-01-02 15:04 UTC")).Debug("scheduled scan pending")

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(now)):
		}

		s.log.WithField("time", next.Format("15:04")).Info("running scheduled scan")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.job(ctx)
		}()
	}
}
