// ==============================================================================================
// FILE: scheduler/scheduler.go
// ==============================================================================================
// PACKAGE: scheduler
// PURPOSE: Timers, named jobs, and cron tasks for gopa programs. Mirrors
//          gopa_lang/graphics_stub.py's Scheduler class: a virtual-time mode
//          driven entirely by Step(dt) (deterministic, used by tests and by
//          `gopa test`), and a wall-clock mode that ticks a background
//          goroutine every 100ms.
// ==============================================================================================

package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner executes a task body. The evaluator implements this by running an
// AST block in the interpreter's global scope; the scheduler package itself
// has no notion of statements or values.
type Runner func() error

type afterTask struct {
	runAt float64
	run   Runner
}

type everyTask struct {
	interval float64
	lastRun  float64
	run      Runner
}

type namedJob struct {
	interval float64
	lastRun  float64
	run      Runner
}

type cronTask struct {
	schedule    cron.Schedule
	run         Runner
	lastFiredAt time.Time // truncated to the minute; zero until first fire
}

// Scheduler holds every registered timer/job/cron task. VirtualTime mode
// advances only in response to Step; wall-clock mode spawns a 100ms-tick
// goroutine started by Start and stopped by Stop.
type Scheduler struct {
	mu          sync.Mutex
	virtualTime bool
	currentTime float64 // seconds, virtual-time mode only

	afterTasks []*afterTask
	everyTasks []*everyTask
	jobs       map[string]*namedJob
	jobOrder   []string
	cronTasks  []*cronTask

	running bool
	stopCh  chan struct{}
}

func New(virtualTime bool) *Scheduler {
	return &Scheduler{
		virtualTime: virtualTime,
		jobs:        make(map[string]*namedJob),
	}
}

func (s *Scheduler) now() float64 {
	if s.virtualTime {
		return s.currentTime
	}
	return float64(time.Now().UnixNano()) / 1e9
}

// Wait advances virtual time, or sleeps on the wall clock.
func (s *Scheduler) Wait(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.virtualTime {
		s.currentTime += seconds
		return
	}
	s.mu.Unlock()
	time.Sleep(time.Duration(seconds * float64(time.Second)))
	s.mu.Lock()
}

// After schedules a one-shot task.
func (s *Scheduler) After(seconds float64, run Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterTasks = append(s.afterTasks, &afterTask{runAt: s.now() + seconds, run: run})
}

// Every schedules a recurring task at a fixed interval.
func (s *Scheduler) Every(seconds float64, run Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.everyTasks = append(s.everyTasks, &everyTask{interval: seconds, lastRun: s.now(), run: run})
}

// Job registers (or replaces) a named recurring task.
func (s *Scheduler) Job(name string, seconds float64, run Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; !exists {
		s.jobOrder = append(s.jobOrder, name)
	}
	s.jobs[name] = &namedJob{interval: seconds, lastRun: s.now(), run: run}
}

// StopJob cancels a named job; no-op if it does not exist.
func (s *Scheduler) StopJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, name)
	for i, n := range s.jobOrder {
		if n == name {
			s.jobOrder = append(s.jobOrder[:i], s.jobOrder[i+1:]...)
			break
		}
	}
}

// Cron registers a persistent cron task, accepting either a friendly phrase
// ("every minute", "every day at 09:30", "every monday at 08:00") or a
// classic 5-field cron string ("30 9 * * 1").
func (s *Scheduler) Cron(schedule string, run Runner) error {
	standard, err := translateCronPhrase(schedule)
	if err != nil {
		return err
	}
	sched, err := cron.ParseStandard(standard)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cronTasks = append(s.cronTasks, &cronTask{schedule: sched, run: run})
	return nil
}

var weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// translateCronPhrase turns gopa's friendly cron phrases into the classic
// 5-field "minute hour day month dow" form robfig/cron's standard parser
// accepts; a string that already has 5 fields passes through unchanged.
func translateCronPhrase(schedule string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(schedule))

	switch {
	case lower == "every minute":
		return "* * * * *", nil
	case lower == "every hour":
		return "0 * * * *", nil
	}

	if rest, ok := strings.CutPrefix(lower, "every day at "); ok {
		h, m, err := parseHHMM(rest)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d * * *", m, h), nil
	}

	for dow, name := range weekdays {
		prefix := "every " + name + " at "
		if rest, ok := strings.CutPrefix(lower, prefix); ok {
			h, m, err := parseHHMM(rest)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d %d * * %d", m, h, dow), nil
		}
	}

	fields := strings.Fields(schedule)
	if len(fields) == 5 {
		return schedule, nil
	}

	return "", fmt.Errorf("invalid cron schedule: %q", schedule)
}

func parseHHMM(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return h, m, nil
}

// Step advances virtual time by dt and fires any task whose condition is now
// satisfied. Firing order is after -> every -> job -> cron, each in
// registration order, matching gopa_lang/graphics_stub.py's step().
func (s *Scheduler) Step(dt float64) {
	s.mu.Lock()
	if !s.virtualTime {
		s.mu.Unlock()
		return
	}
	s.currentTime += dt
	now := s.currentTime

	remaining := s.afterTasks[:0]
	var due []*afterTask
	for _, t := range s.afterTasks {
		if now >= t.runAt {
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	s.afterTasks = remaining

	var everyDue []*everyTask
	for _, t := range s.everyTasks {
		if now >= t.lastRun+t.interval {
			t.lastRun = now
			everyDue = append(everyDue, t)
		}
	}

	var jobsDue []*namedJob
	for _, name := range s.jobOrder {
		j := s.jobs[name]
		if j != nil && now >= j.lastRun+j.interval {
			j.lastRun = now
			jobsDue = append(jobsDue, j)
		}
	}

	minuteStart := time.Unix(int64(now), 0).UTC().Truncate(time.Minute)
	var cronDue []*cronTask
	for _, t := range s.cronTasks {
		if fires(t.schedule, minuteStart) && !t.lastFiredAt.Equal(minuteStart) {
			t.lastFiredAt = minuteStart
			cronDue = append(cronDue, t)
		}
	}
	s.mu.Unlock()

	runAll(due, func(t *afterTask) Runner { return t.run })
	runAll(everyDue, func(t *everyTask) Runner { return t.run })
	runAll(jobsDue, func(t *namedJob) Runner { return t.run })
	runAll(cronDue, func(t *cronTask) Runner { return t.run })
}

// fires reports whether schedule would next activate exactly at minuteStart,
// i.e. whether it matches that minute - robfig/cron only exposes Next(t), so
// this checks that Next(minuteStart - 1ns) lands on minuteStart.
func fires(schedule cron.Schedule, minuteStart time.Time) bool {
	next := schedule.Next(minuteStart.Add(-time.Nanosecond))
	return next.Equal(minuteStart)
}

func runAll[T any](tasks []T, get func(T) Runner) {
	for _, t := range tasks {
		run := get(t)
		if run == nil {
			continue
		}
		_ = run() // errors from a scheduled body are swallowed, matching the original's bare except
	}
}

// Start begins wall-clock ticking in a background goroutine, polling every
// 100ms, matching graphics_stub.py's Scheduler.start().
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running || s.virtualTime {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.tickWallClock()
			}
		}
	}()
}

func (s *Scheduler) tickWallClock() {
	s.mu.Lock()
	now := s.now()

	var due []*afterTask
	remaining := s.afterTasks[:0]
	for _, t := range s.afterTasks {
		if now >= t.runAt {
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	s.afterTasks = remaining

	var everyDue []*everyTask
	for _, t := range s.everyTasks {
		if now >= t.lastRun+t.interval {
			t.lastRun = now
			everyDue = append(everyDue, t)
		}
	}

	var jobsDue []*namedJob
	for _, name := range s.jobOrder {
		j := s.jobs[name]
		if j != nil && now >= j.lastRun+j.interval {
			j.lastRun = now
			jobsDue = append(jobsDue, j)
		}
	}

	minuteStart := time.Now().UTC().Truncate(time.Minute)
	var cronDue []*cronTask
	for _, t := range s.cronTasks {
		if fires(t.schedule, minuteStart) && !t.lastFiredAt.Equal(minuteStart) {
			t.lastFiredAt = minuteStart
			cronDue = append(cronDue, t)
		}
	}
	s.mu.Unlock()

	runAll(due, func(t *afterTask) Runner { return t.run })
	runAll(everyDue, func(t *everyTask) Runner { return t.run })
	runAll(jobsDue, func(t *namedJob) Runner { return t.run })
	runAll(cronDue, func(t *cronTask) Runner { return t.run })
}

// Stop halts wall-clock ticking; no-op in virtual-time mode.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}
