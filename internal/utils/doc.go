// Package utils exposes the ambient helpers shared by the mess command.
//
// ConfigurationLoader layers embedded defaults, configuration files and
// environment variables through Viper. LoggerFactory builds zap loggers for
// the supported levels and formats. FlushingWriter keeps console output
// visible as it is produced.
package utils
