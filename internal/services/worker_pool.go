package services

import "sync"

// runParallel executes tasks with at most workers goroutines in flight.
// Each task owns its result slot, so no synchronization is needed
// beyond the semaphore and the final wait.
func runParallel(workers int, tasks []func()) {
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, task := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(run func()) {
			defer func() {
				<-sem
				wg.Done()
			}()
			run()
		}(task)
	}

	wg.Wait()
}
