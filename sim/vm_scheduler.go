package sim

import "math"

// TimeSharedTaskScheduler splits a VM's allocated capacity equally among the
// tasks executing on it. Every task bound to the VM runs concurrently; there
// is no queueing depth limit and no run-to-completion ordering.
//
// All executing tasks share the same lastUpdate because the datacenter
// advances progress before admitting a new task.
type TimeSharedTaskScheduler struct {
	executing []*Task
}

// Len returns the number of executing tasks.
func (s *TimeSharedTaskScheduler) Len() int { return len(s.executing) }

// Tasks returns a copy of the executing tasks in submission order.
func (s *TimeSharedTaskScheduler) Tasks() []*Task {
	return append([]*Task(nil), s.executing...)
}

// Share returns allocated/k for k executing tasks, or 0 when idle.
func (s *TimeSharedTaskScheduler) Share(allocated float64) float64 {
	if len(s.executing) == 0 {
		return 0
	}
	return allocated / float64(len(s.executing))
}

// Submit starts t immediately at now.
func (s *TimeSharedTaskScheduler) Submit(t *Task, now float64) {
	t.Status = TaskExecuting
	t.ExecStartTime = now
	t.lastUpdate = now
	s.executing = append(s.executing, t)
}

// Advance accumulates share × Δt on every executing task and removes and
// returns those that reached their length. The share is the one that held
// during the elapsed interval, i.e. computed before removal.
//
// A task also counts as finished when its remaining time at the current share
// is below the resolution of now, since no later clock value could settle it.
func (s *TimeSharedTaskScheduler) Advance(now, allocated float64) []*Task {
	share := s.Share(allocated)
	var finished []*Task
	kept := make([]*Task, 0, len(s.executing))
	for _, t := range s.executing {
		if dt := now - t.lastUpdate; dt > 0 {
			t.AccumulatedLength += share * dt
		}
		t.lastUpdate = now
		remaining := t.Length - t.AccumulatedLength
		if remaining <= lengthTolerance || (share > 0 && now+remaining/share <= now) {
			t.AccumulatedLength = t.Length
			finished = append(finished, t)
			continue
		}
		kept = append(kept, t)
	}
	s.executing = kept
	return finished
}

// NextCompletion projects the earliest time an executing task finishes at the
// current share. The result is always strictly after now, so every update
// moves the clock. ok is false when nothing can make progress.
func (s *TimeSharedTaskScheduler) NextCompletion(now, allocated float64) (at float64, ok bool) {
	share := s.Share(allocated)
	if share <= 0 {
		return 0, false
	}
	at = math.Inf(1)
	for _, t := range s.executing {
		if candidate := now + t.Remaining()/share; candidate < at {
			at = candidate
		}
	}
	if math.IsInf(at, 1) {
		return 0, false
	}
	if at <= now {
		at = math.Nextafter(now, math.Inf(1))
	}
	return at, true
}

// drain removes all executing tasks without completing them.
func (s *TimeSharedTaskScheduler) drain() []*Task {
	out := s.executing
	s.executing = nil
	return out
}
