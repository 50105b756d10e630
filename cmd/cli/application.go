package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/mess/internal/execshell"
	"github.com/temirov/mess/internal/filesystem"
	"github.com/temirov/mess/internal/gitrepo"
	"github.com/temirov/mess/internal/ignore"
	"github.com/temirov/mess/internal/mess"
	"github.com/temirov/mess/internal/ui"
	"github.com/temirov/mess/internal/utils"
	pathutils "github.com/temirov/mess/internal/utils/path"
)

const (
	applicationNameConstant                 = "mess"
	applicationUseConstant                  = "mess [paths...]"
	applicationShortDescriptionConstant     = "Report leftover files and dirty repositories under workspace roots"
	applicationLongDescriptionConstant      = "mess walks each root (the current directory when none is given) and prints loose files, dirty git repositories, unknown entries and roots that do not exist. Directories holding a .nomess file are skipped and paths matching the ignore file are suppressed."
	versionTemplateConstant                 = "mess version: {{.Version}}\n"
	developmentVersionConstant              = "(devel)"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "MESS"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	traversalSetupErrorTemplateConstant     = "unable to prepare traversal: %w"
	reportOutputErrorTemplateConstant       = "unable to write reports: %w"
	rootCommandDebugMessageConstant         = "mess started"
	ignoreFileUnavailableMessageConstant    = "ignore file unavailable, continuing without ignore patterns"
	ignoreFileLoadedMessageConstant         = "ignore patterns loaded"
	inspectorSelectedMessageConstant        = "repository inspector selected"
	logFieldArgumentsConstant               = "arguments"
	logFieldIgnoreFileConstant              = "ignore_file"
	logFieldPatternCountConstant            = "pattern_count"
	logFieldInspectorConstant               = "inspector"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationSearchPathConstant     = "~/.config/mess"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Mess   MessConfiguration              `mapstructure:"mess"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	homeExpander          *pathutils.HomeExpander
	configuration         ApplicationConfiguration
	messSettings          ResolvedMessSettings
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	homeExpander := pathutils.NewHomeExpander()
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant, homeExpander.Expand(userConfigurationSearchPathConstant)},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		homeExpander:        homeExpander,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       resolveVersion(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// Command exposes the root command so callers can set arguments and outputs.
func (application *Application) Command() *cobra.Command {
	return application.rootCommand
}

// Execute runs the root command and ensures logger flushing.
func (application *Application) Execute() error {
	return application.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the supplied context and ensures logger flushing.
func (application *Application) ExecuteContext(executionContext context.Context) error {
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command.
func Execute(executionContext context.Context) error {
	return NewApplication().ExecuteContext(executionContext)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	for configurationKey, configurationValue := range DefaultMessConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logLevel, levelError := utils.ParseLogLevel(application.configuration.Common.LogLevel)
	if levelError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, levelError)
	}
	logFormat, formatError := utils.ParseLogFormat(application.configuration.Common.LogFormat)
	if formatError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, formatError)
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(logLevel, logFormat)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	messSettings, settingsError := application.configuration.Mess.Resolve()
	if settingsError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, settingsError)
	}
	application.messSettings = messSettings

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, string(logLevel)),
		zap.String(configurationLogFormatFieldConstant, string(logFormat)),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Debug(rootCommandDebugMessageConstant, zap.Strings(logFieldArgumentsConstant, arguments))

	renderer, rendererError := ui.NewReportRenderer(command.OutOrStdout(), ui.ReportRendererOptions{
		Format:       application.messSettings.OutputFormat,
		ShowExcluded: application.messSettings.ShowExcluded,
		ColorEnabled: ui.ResolveColorEnabled(application.messSettings.ColorMode, command.OutOrStdout()),
	})
	if rendererError != nil {
		return fmt.Errorf(traversalSetupErrorTemplateConstant, rendererError)
	}

	service, serviceError := application.buildService(renderer)
	if serviceError != nil {
		return fmt.Errorf(traversalSetupErrorTemplateConstant, serviceError)
	}

	runError := service.Run(command.Context(), mess.CommandOptions{Roots: arguments})
	if closeError := renderer.Close(); closeError != nil && runError == nil {
		return fmt.Errorf(reportOutputErrorTemplateConstant, closeError)
	}
	return runError
}

func (application *Application) buildService(sink mess.ReportSink) (*mess.Service, error) {
	fileSystem := filesystem.OSFileSystem{}

	stateReader, stateReaderError := application.buildStateReader(fileSystem)
	if stateReaderError != nil {
		return nil, stateReaderError
	}

	inspector, inspectorError := gitrepo.NewInspector(stateReader, application.messSettings.DefaultBranches, application.logger)
	if inspectorError != nil {
		return nil, inspectorError
	}

	walker, walkerError := mess.NewWalker(fileSystem, inspector, sink, mess.WalkerOptions{
		IgnorePatterns:   application.loadIgnorePatterns(fileSystem),
		ExclusionMarker:  application.messSettings.ExclusionMarker,
		RepositoryMarker: application.messSettings.RepositoryMarker,
	}, application.logger)
	if walkerError != nil {
		return nil, walkerError
	}

	return mess.NewService(walker, application.homeExpander, application.logger)
}

func (application *Application) buildStateReader(fileSystem filesystem.OSFileSystem) (gitrepo.RepositoryStateReader, error) {
	application.logger.Debug(inspectorSelectedMessageConstant, zap.String(logFieldInspectorConstant, string(application.messSettings.Inspector)))

	if application.messSettings.Inspector == InspectorKindLibrary {
		libraryReader, libraryReaderError := gitrepo.NewLibraryStateReader(fileSystem)
		if libraryReaderError != nil {
			return nil, libraryReaderError
		}
		return libraryReader, nil
	}

	var eventObserver execshell.CommandEventObserver
	if application.humanReadableLoggingEnabled() {
		eventObserver = ui.NewConsoleCommandEventLogger(application.logger)
	}

	executor, executorError := execshell.NewShellExecutorWithOptions(application.logger, execshell.NewOSCommandRunner(), execshell.ShellExecutorOptions{
		CommandTimeout: application.messSettings.GitTimeout,
		EventObserver:  eventObserver,
	})
	if executorError != nil {
		return nil, executorError
	}

	cliReader, cliReaderError := gitrepo.NewCLIStateReader(executor)
	if cliReaderError != nil {
		return nil, cliReaderError
	}
	return cliReader, nil
}

// loadIgnorePatterns never fails the run; a broken ignore file only loses suppression.
func (application *Application) loadIgnorePatterns(fileSystem filesystem.OSFileSystem) ignore.PatternSet {
	ignoreFilePath := application.homeExpander.Expand(application.messSettings.IgnoreFile)
	patterns, loadError := ignore.NewLoader(fileSystem).Load(ignoreFilePath)
	if loadError != nil {
		application.logger.Warn(ignoreFileUnavailableMessageConstant, zap.String(logFieldIgnoreFileConstant, ignoreFilePath), zap.Error(loadError))
		return ignore.NewPatternSet(nil)
	}
	application.logger.Debug(ignoreFileLoadedMessageConstant, zap.String(logFieldIgnoreFileConstant, ignoreFilePath), zap.Int(logFieldPatternCountConstant, patterns.Len()))
	return patterns
}

func (application *Application) flushLogger() error {
	return application.syncLoggerInstance(application.logger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func resolveVersion() string {
	buildInformation, available := debug.ReadBuildInfo()
	if !available || len(buildInformation.Main.Version) == 0 {
		return developmentVersionConstant
	}
	return buildInformation.Main.Version
}
