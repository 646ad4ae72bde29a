/*
Package status holds the progress state shared between the copy worker and the
display.

	+-------------+            +-------------+
	|   Worker    |  writes    |  Progress   |
	| (operation) +----------->+  (shared)   |
	+-------------+            +------+------+
	                                  | reads
	                           +------+------+
	                           |   Monitor   |
	                           |  (display)  |
	                           +-------------+

🎯 Purpose:
- Byte progress with a fixed denominator
- Current file and transient status messages
- The single terminal error of a run
- Completion signal for readers

⚡ Consistency:
The worker is the only writer. Readers take a Snapshot whenever they like and
may observe fields from slightly different moments. Nothing but display code
should read a Snapshot.

🔍 Example:

	p := status.NewProgress()
	p.SetTotal(total)
	go worker(p)

	<-p.Done()
	snap := p.Snapshot()
*/
package status
