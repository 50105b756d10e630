package execshell

import "go.uber.org/zap"

const (
	logFieldCommandNameConstant      = "command_name"
	logFieldCommandArgumentsConstant = "command_arguments"
	logFieldWorkingDirectoryConstant = "working_directory"
	logFieldExitCodeConstant         = "exit_code"
)

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// loggingCommandEventObserver writes command events to a structured zap logger at debug level.
type loggingCommandEventObserver struct {
	logger    *zap.Logger
	formatter CommandMessageFormatter
}

func newLoggingCommandEventObserver(logger *zap.Logger) loggingCommandEventObserver {
	return loggingCommandEventObserver{logger: logger, formatter: CommandMessageFormatter{}}
}

func (observer loggingCommandEventObserver) CommandStarted(command ShellCommand) {
	observer.logger.Debug(observer.formatter.BuildStartedMessage(command), commandFields(command)...)
}

func (observer loggingCommandEventObserver) CommandCompleted(command ShellCommand, result ExecutionResult) {
	fields := append(commandFields(command), zap.Int(logFieldExitCodeConstant, result.ExitCode))
	if result.ExitCode == 0 {
		observer.logger.Debug(observer.formatter.BuildCompletionMessage(command, result), fields...)
		return
	}
	observer.logger.Debug(observer.formatter.BuildFailureMessage(command, result), fields...)
}

func (observer loggingCommandEventObserver) CommandExecutionFailed(command ShellCommand, failure error) {
	fields := append(commandFields(command), zap.Error(failure))
	observer.logger.Debug(observer.formatter.BuildExecutionFailureMessage(command, failure), fields...)
}

func commandFields(command ShellCommand) []zap.Field {
	return []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}
}
