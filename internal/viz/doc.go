// Package viz renders control runs in the terminal: a live Bubble Tea view
// over a running loop and asciigraph plots of recorded runs.
//
// # Key Bindings
//
//	Space   - Pause/Resume the loop (motors go neutral while paused)
//	F       - Fire the find trigger by hand
//	Tab     - Select the next gain
//	Up/Down - Scale the selected gain by 5%
//	Q       - Quit
package viz
