// Package app wires configuration, the output router and the dispatcher
// into runs, and drives the long-running watch and serve commands.
package app
