// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the ConfigurationLoader, the LoggerFactory, and the Clock that
// integrate Viper, environment variables, validation, and zap logging with an
// optional rotated log file for the portal-audit CLI.
package utils
