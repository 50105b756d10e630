package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/temirov/mess/internal/gitrepo"
	"github.com/temirov/mess/internal/ui"
)

// InspectorKind selects how repository state is read.
type InspectorKind string

// Supported inspector kinds.
const (
	InspectorKindCLI     InspectorKind = InspectorKind("cli")
	InspectorKindLibrary InspectorKind = InspectorKind("library")
)

const (
	messConfigurationKeyConstant         = "mess"
	ignoreFileConfigKeyConstant          = messConfigurationKeyConstant + ".ignore_file"
	exclusionMarkerConfigKeyConstant     = messConfigurationKeyConstant + ".exclusion_marker"
	repositoryMarkerConfigKeyConstant    = messConfigurationKeyConstant + ".repository_marker"
	defaultBranchesConfigKeyConstant     = messConfigurationKeyConstant + ".default_branches"
	gitTimeoutConfigKeyConstant          = messConfigurationKeyConstant + ".git_timeout"
	inspectorConfigKeyConstant           = messConfigurationKeyConstant + ".inspector"
	outputFormatConfigKeyConstant        = messConfigurationKeyConstant + ".output_format"
	colorConfigKeyConstant               = messConfigurationKeyConstant + ".color"
	showExcludedConfigKeyConstant        = messConfigurationKeyConstant + ".show_excluded"
	defaultIgnoreFilePathConstant        = "~/.config/mess/ignore"
	defaultExclusionMarkerConstant       = ".nomess"
	defaultRepositoryMarkerConstant      = ".git"
	defaultGitTimeoutConstant            = 10 * time.Second
	unsupportedInspectorTemplateConstant = "unsupported inspector %q"
	invalidGitTimeoutTemplateConstant    = "git timeout must be positive, got %s"
	invalidMessSettingTemplateConstant   = "invalid mess configuration: %w"
)

// MessConfiguration holds the traversal settings read from the mess section.
type MessConfiguration struct {
	IgnoreFile       string        `mapstructure:"ignore_file"`
	ExclusionMarker  string        `mapstructure:"exclusion_marker"`
	RepositoryMarker string        `mapstructure:"repository_marker"`
	DefaultBranches  []string      `mapstructure:"default_branches"`
	GitTimeout       time.Duration `mapstructure:"git_timeout"`
	Inspector        string        `mapstructure:"inspector"`
	OutputFormat     string        `mapstructure:"output_format"`
	Color            string        `mapstructure:"color"`
	ShowExcluded     bool          `mapstructure:"show_excluded"`
}

// ResolvedMessSettings carries validated traversal settings.
type ResolvedMessSettings struct {
	IgnoreFile       string
	ExclusionMarker  string
	RepositoryMarker string
	DefaultBranches  []string
	GitTimeout       time.Duration
	Inspector        InspectorKind
	OutputFormat     ui.OutputFormat
	ColorMode        ui.ColorMode
	ShowExcluded     bool
}

// DefaultMessConfigurationValues returns the fallback values for the mess section.
func DefaultMessConfigurationValues() map[string]any {
	return map[string]any{
		ignoreFileConfigKeyConstant:       defaultIgnoreFilePathConstant,
		exclusionMarkerConfigKeyConstant:  defaultExclusionMarkerConstant,
		repositoryMarkerConfigKeyConstant: defaultRepositoryMarkerConstant,
		defaultBranchesConfigKeyConstant:  gitrepo.DefaultBranchNames(),
		gitTimeoutConfigKeyConstant:       defaultGitTimeoutConstant.String(),
		inspectorConfigKeyConstant:        string(InspectorKindCLI),
		outputFormatConfigKeyConstant:     string(ui.OutputFormatText),
		colorConfigKeyConstant:            string(ui.ColorModeAuto),
		showExcludedConfigKeyConstant:     false,
	}
}

// Resolve validates the configuration and fills blank values with defaults.
func (configuration MessConfiguration) Resolve() (ResolvedMessSettings, error) {
	inspectorKind, inspectorError := ParseInspectorKind(configuration.Inspector)
	if inspectorError != nil {
		return ResolvedMessSettings{}, fmt.Errorf(invalidMessSettingTemplateConstant, inspectorError)
	}
	outputFormat, formatError := ui.ParseOutputFormat(configuration.OutputFormat)
	if formatError != nil {
		return ResolvedMessSettings{}, fmt.Errorf(invalidMessSettingTemplateConstant, formatError)
	}
	colorMode, colorError := ui.ParseColorMode(configuration.Color)
	if colorError != nil {
		return ResolvedMessSettings{}, fmt.Errorf(invalidMessSettingTemplateConstant, colorError)
	}

	gitTimeout := configuration.GitTimeout
	if gitTimeout == 0 {
		gitTimeout = defaultGitTimeoutConstant
	}
	if gitTimeout < 0 {
		return ResolvedMessSettings{}, fmt.Errorf(invalidMessSettingTemplateConstant, fmt.Errorf(invalidGitTimeoutTemplateConstant, gitTimeout))
	}

	return ResolvedMessSettings{
		IgnoreFile:       strings.TrimSpace(configuration.IgnoreFile),
		ExclusionMarker:  valueOrDefault(configuration.ExclusionMarker, defaultExclusionMarkerConstant),
		RepositoryMarker: valueOrDefault(configuration.RepositoryMarker, defaultRepositoryMarkerConstant),
		DefaultBranches:  append([]string{}, configuration.DefaultBranches...),
		GitTimeout:       gitTimeout,
		Inspector:        inspectorKind,
		OutputFormat:     outputFormat,
		ColorMode:        colorMode,
		ShowExcluded:     configuration.ShowExcluded,
	}, nil
}

// ParseInspectorKind validates an inspector name. An empty value selects the git CLI.
func ParseInspectorKind(rawKind string) (InspectorKind, error) {
	normalizedKind := InspectorKind(strings.ToLower(strings.TrimSpace(rawKind)))
	switch normalizedKind {
	case "":
		return InspectorKindCLI, nil
	case InspectorKindCLI, InspectorKindLibrary:
		return normalizedKind, nil
	default:
		return "", fmt.Errorf(unsupportedInspectorTemplateConstant, rawKind)
	}
}

func valueOrDefault(value string, fallback string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallback
	}
	return trimmedValue
}
