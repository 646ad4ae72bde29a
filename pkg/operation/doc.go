/*
Package operation drives a copy run from start to finish.

	+-------------+     +-----------+     +----------+
	|   Walker    | --> |  Planner  | --> |  Copier  |
	| (discovery) |     | (decide)  |     | (retry)  |
	+-------------+     +-----------+     +----+-----+
	                                           |
	                                    +------+------+
	                                    |  Progress   |
	                                    | (Reporter)  |
	                                    +-------------+

🎯 Purpose:
- Full sync: copy every source file whose destination copy is missing or differs
- Missing only: copy a plan of files whose names are absent from the destination
- Account every unit's bytes against the progress total, copied or skipped

🔄 Run states:

	Preparing -> Sizing (full sync only) -> Transferring -> Completed
	                                                     -> Cancelled
	                                                     -> Failed

A terminal copy error stops the run at once. No unit after it is attempted.
Cancellation is observed between units, never in the middle of one.

🔍 Example:

	progress := status.NewProgress()
	orch := operation.New(operation.Options{Progress: progress})
	runner := operation.Start(ctx, progress, func(ctx context.Context) (operation.Result, error) {
		return orch.RunFullSync(ctx, src, dst, 3)
	})
	res, err := runner.Wait(ctx)
*/
package operation
