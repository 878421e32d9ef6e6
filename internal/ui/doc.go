// Package ui provides terminal styling shared by xperf's console output and
// live dashboard.
//
// # Color Scheme
//
// Colors are defined as ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Healthy values, completed exports
//	ColorError     (red)    - Peaks, lost connections
//	ColorWarning   (yellow) - Skipped ticks, missing process
//	ColorInfo      (cyan)   - Package names, paths
//	ColorMuted     (gray)   - Timestamps, secondary detail
//
// Use DisableColors() to switch to monochrome output (for --no-color flag).
//
// # Sparklines
//
// RenderSparkline draws a percentage history colored by the latest value.
// RenderSparklineColor draws any series in a fixed color, which suits
// memory where there is no natural ceiling.
//
//	ui.RenderSparkline(cpuHistory, 40)
//	ui.RenderSparklineColor(pssHistory, 40, ui.ColorInfo)
package ui
