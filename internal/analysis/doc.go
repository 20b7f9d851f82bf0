// Package analysis summarizes recorded control runs.
//
//   - [Summarize]: mean, spread, extremes and RMS of a column
//   - [SettlingTime]: when an error signal last left its tolerance band
//   - [DominantPeriod]: strongest oscillation of a signal, via [PowerSpectrum]
//
// Report assembles these for a stored run:
//
//	rep := analysis.Report(meta, series)
//	fmt.Println(rep.Columns["heading_error"].RMS)
package analysis
