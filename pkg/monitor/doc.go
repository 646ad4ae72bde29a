/*
Package monitor samples copy progress and host telemetry on a fixed interval
and renders it for the user.

The monitor only reads. It never blocks the worker and never changes what the
worker does. A frame may pair a newer byte count with an older file name.

	+-----------+     +-----------+     +------------+
	| Progress  | --> |  Monitor  | --> |  Renderer  |
	| Telemetry |     | (ticker)  |     | (bar/line) |
	+-----------+     +-----------+     +------------+
*/
package monitor
