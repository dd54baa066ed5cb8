// Package utils holds the ambient plumbing of the workspace CLI: the viper-backed
// ConfigurationLoader, the zap LoggerFactory with its optional rotating file sink,
// confirmation prompters and the command context accessor.
package utils
