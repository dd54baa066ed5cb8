// Package cli constructs the workspace command-line interface: the Cobra command
// hierarchy, the layered viper configuration with its embedded defaults, zap
// logging and the location of the workspace root every command operates on.
package cli
