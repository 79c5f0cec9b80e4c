// Package viz provides terminal views of running signals.
//
// [Monitor] is a Bubble Tea model that watches every member of a
// [sim.Ensemble]: a signal list with sparklines on the left, and a live
// asciigraph plot plus running metrics for the focused signal on the right.
//
// # Key Bindings
//
//	Tab/Shift+Tab - Move focus between signals
//	Space         - Start/Stop the focused signal
//	A / S         - Start/Stop every signal
//	+ / -         - Scale the focused step size
//	[ / ]         - Slow down / speed up the focused signal
//	?             - Show help
//	Q             - Quit
//
// [Plot] is also used on its own to print a finished walk.
package viz
