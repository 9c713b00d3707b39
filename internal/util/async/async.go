package async

import (
	"context"
	"errors"
	"fmt"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently and waits for all of them.
// At most limit tasks run at once; limit <= 0 runs every task at once.
// Errors are prefixed with the task name and joined.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "pve1", Func: listNode("pve1")},
//	    {Name: "pve2", Func: listNode("pve2")},
//	}
//	if err := RunParallel(ctx, tasks, 4); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task, limit int) error {
	if len(tasks) == 0 {
		return nil
	}
	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}

	sem := make(chan struct{}, limit)
	errs := make(chan error, len(tasks))

	for _, task := range tasks {
		go func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := task.Func(ctx); err != nil {
				errs <- fmt.Errorf("%s: %w", task.Name, err)
				return
			}
			errs <- nil
		}()
	}

	var all []error
	for range len(tasks) {
		if err := <-errs; err != nil {
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}
