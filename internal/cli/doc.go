// Package cli implements the xperf command-line interface.
//
// # Command Structure
//
//	xperf monitor -p PKG --cpu --memory   - Sample a process until stopped
//	xperf devices                         - List adb devices and SSH hosts
//	xperf summary FILE                    - Reprint a saved session summary
//	xperf doctor                          - Check config, adb, ssh and the target
//	xperf version                         - Print build information
//
// # Flag Handling
//
// Global flags (--config, --no-color, --debug) live on the root command.
// The monitor flags are bound into viper so a .xperf.yaml file and XPERF_*
// environment variables fill anything not given on the command line.
//
// # Exit Codes
//
//	0  the session was stopped cleanly
//	1  unexpected error
//	2  configuration error, reported before sampling starts
//	3  connection to the device was lost
package cli
