// Package sched provides a cooperative task scheduler driven by an
// external poll loop.
//
// The scheduler never starts goroutines. The host calls Poll once per loop
// iteration (or on a timer tick); every task whose period has elapsed runs
// to completion on the polling goroutine, highest priority first.
//
// # Tasks
//
// A task is created stopped:
//
//	s := sched.New()
//	t := s.NewTask(100*time.Millisecond, sched.PriorityMid, func() {
//	    // periodic work; must not block
//	})
//	t.StartWith(100*time.Millisecond, 3) // run three times, then stop
//
//	for {
//	    s.Poll()
//	    time.Sleep(5 * time.Millisecond)
//	}
//
// A task with Times() == -1 runs until stopped. A task that reaches its run
// budget stops itself, and a task flagged with SetDeleteAfterStop removes
// itself from the scheduler when it stops.
//
// # One-shot tasks
//
// Once schedules a function to run a single time after a delay. The task
// carries a run budget of one and deletes itself afterwards:
//
//	s.Once(time.Millisecond, func() { fmt.Println("later") })
//
// # Time
//
// Elapsed time is read from a Clock. Hosts and tests that need
// deterministic time can install a ManualClock with WithClock.
//
// # Thread Safety
//
// A Scheduler is confined to the goroutine that polls it. It takes no
// locks; creating, starting or stopping tasks from other goroutines is a
// data race.
package sched
