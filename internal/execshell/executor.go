package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor requires a logger"
	commandRunnerNotConfiguredMessageConstant = "shell executor requires a command runner"
	commandFailedErrorTemplateConstant        = "%s exited with code %d%s"
	commandExecutionErrorTemplateConstant     = "%s could not be executed: %v"
	commandTimeoutErrorTemplateConstant       = "%s timed out after %s"
	commandErrorSuffixTemplateConstant        = ": %s"
)

// CommandName identifies an executable invoked by the shell executor.
type CommandName string

// Supported command names.
const (
	CommandGit CommandName = CommandName("git")
)

// CommandDetails describes arguments and execution environment for a command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failedError CommandFailedError) Error() string {
	standardErrorSuffix := ""
	if trimmed := strings.TrimSpace(failedError.Result.StandardError); len(trimmed) > 0 {
		standardErrorSuffix = fmt.Sprintf(commandErrorSuffixTemplateConstant, trimmed)
	}
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failedError.Command.Name, failedError.Result.ExitCode, standardErrorSuffix)
}

// CommandExecutionError reports a command that could not be started or did not finish.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, executionError.Command.Name, executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutorOptions tunes optional executor behavior.
type ShellExecutorOptions struct {
	// CommandTimeout bounds every command; zero disables the bound.
	CommandTimeout time.Duration
	// EventObserver receives lifecycle events; nil selects structured logging.
	EventObserver CommandEventObserver
}

// ShellExecutor runs commands through a CommandRunner and reports lifecycle events.
type ShellExecutor struct {
	logger         *zap.Logger
	runner         CommandRunner
	eventObserver  CommandEventObserver
	commandTimeout time.Duration
}

// NewShellExecutor constructs an executor that logs command events through the provided logger.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	return NewShellExecutorWithOptions(logger, runner, ShellExecutorOptions{})
}

// NewShellExecutorWithOptions constructs an executor with a timeout and a custom event observer.
func NewShellExecutorWithOptions(logger *zap.Logger, runner CommandRunner, options ShellExecutorOptions) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	eventObserver := options.EventObserver
	if eventObserver == nil {
		eventObserver = newLoggingCommandEventObserver(logger)
	}

	return &ShellExecutor{
		logger:         logger,
		runner:         runner,
		eventObserver:  eventObserver,
		commandTimeout: options.CommandTimeout,
	}, nil
}

// Execute runs the command and converts non-zero exits and runner failures into typed errors.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	boundedContext := executionContext
	if executor.commandTimeout > 0 {
		var cancel context.CancelFunc
		boundedContext, cancel = context.WithTimeout(executionContext, executor.commandTimeout)
		defer cancel()
	}

	executor.eventObserver.CommandStarted(command)

	executionResult, runError := executor.runner.Run(boundedContext, command)
	if runError == nil && errors.Is(boundedContext.Err(), context.DeadlineExceeded) {
		runError = fmt.Errorf(commandTimeoutErrorTemplateConstant, command.Name, executor.commandTimeout)
	}
	if runError != nil {
		executor.eventObserver.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.eventObserver.CommandCompleted(command, executionResult)
	if executionResult.ExitCode != 0 {
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	return executionResult, nil
}

// ExecuteGit runs git with the supplied details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}
