// Package cli wires the mess root command.
//
// The command loads layered configuration, builds the zap logger and hands
// the positional roots to the traversal service, rendering every report on
// stdout.
package cli
