package reconcile

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DefaultTaskLimit bounds in-flight tasks when a Runner is configured
// with no limit of its own.
const DefaultTaskLimit = 50

// Runner executes one task per item through a bounded worker pool.
// Tasks are independent: a failing task never stops or cancels its
// siblings, it only marks its own item failed.
type Runner struct {
	// Limit is the maximum number of tasks in flight at once.
	// Zero or negative falls back to DefaultTaskLimit.
	Limit int

	// Log receives task failures and callback failures. Nil disables logging.
	Log *zap.Logger
}

type taskResult struct {
	key     Key
	outcome Outcome
}

// Run builds a task for every item via construct and executes them with at
// most r.Limit in flight. Items whose constructor returns nil are recorded
// as skipped without dispatching anything. After every task has settled,
// callback (if non-nil) is invoked once per item with its outcome;
// callback errors are logged and swallowed. The returned map has exactly
// one outcome per input item.
func (r *Runner) Run(ctx context.Context, items map[Key]Fields, construct TaskConstructor, callback Callback) map[Key]Outcome {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	outcomes := make(map[Key]Outcome, len(items))

	type job struct {
		key  Key
		task Task
	}

	// Construct all tasks up front so skips never occupy a worker.
	jobs := make([]job, 0, len(items))
	for key, item := range items {
		task := construct(key, item)
		if task == nil {
			outcomes[key] = Outcome{Status: StatusSkipped}
			continue
		}
		jobs = append(jobs, job{key: key, task: task})
	}

	if len(jobs) > 0 {
		workers := r.Limit
		if workers <= 0 {
			workers = DefaultTaskLimit
		}
		if workers > len(jobs) {
			workers = len(jobs)
		}

		jobCh := make(chan job, len(jobs))
		for _, j := range jobs {
			jobCh <- j
		}
		close(jobCh)

		resultCh := make(chan taskResult, len(jobs))

		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				for j := range jobCh {
					response, err := j.task(ctx)
					if err != nil {
						log.Warn("task failed",
							zap.String("key", j.key.String()),
							zap.Error(err))
						resultCh <- taskResult{key: j.key, outcome: Outcome{Status: StatusFailed, Err: err}}
						continue
					}
					resultCh <- taskResult{key: j.key, outcome: Outcome{Status: StatusSucceeded, Response: response}}
				}
			}()
		}

		wg.Wait()
		close(resultCh)

		for res := range resultCh {
			outcomes[res.key] = res.outcome
		}
	}

	if callback != nil {
		for key, item := range items {
			if err := callback(key, item, outcomes[key]); err != nil {
				log.Warn("outcome callback failed",
					zap.String("key", key.String()),
					zap.Error(err))
			}
		}
	}

	return outcomes
}
