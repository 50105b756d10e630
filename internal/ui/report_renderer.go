package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/temirov/mess/internal/mess"
	"github.com/temirov/mess/internal/utils"
)

// OutputFormat selects how reports are rendered.
type OutputFormat string

// Supported output formats.
const (
	OutputFormatText OutputFormat = OutputFormat("text")
	OutputFormatJSON OutputFormat = OutputFormat("json")
	OutputFormatYAML OutputFormat = OutputFormat("yaml")
)

// ColorMode controls colourised text output.
type ColorMode string

// Supported colour modes.
const (
	ColorModeAuto   ColorMode = ColorMode("auto")
	ColorModeAlways ColorMode = ColorMode("always")
	ColorModeNever  ColorMode = ColorMode("never")
)

const (
	fileLabelConstant                 = "file:"
	dirtyRepositoryLabelConstant      = "dirty repo:"
	unknownEntryLabelConstant         = "unknown:"
	notFoundLabelConstant             = "not found:"
	unreadableDirectoryLabelConstant  = "unreadable:"
	cycleDetectedLabelConstant        = "cycle:"
	excludedDirectoryLabelConstant    = "excluded:"
	labeledLineTemplateConstant       = "%s %s\n"
	dirtyRepositoryLineTemplate       = "%s %s (%s)\n"
	unreadableDirectoryLineTemplate   = "%s %s: %s\n"
	rootHeaderLineTemplateConstant    = "%s:"
	reasonSeparatorConstant           = ", "
	newlineConstant                   = "\n"
	noColorEnvironmentVariableName    = "NO_COLOR"
	writerNotConfiguredMessage        = "report renderer requires a writer"
	unsupportedOutputFormatTemplate   = "unsupported output format %q"
	unsupportedColorModeTemplate      = "unsupported color mode %q"
	renderWriteErrorTemplateConstant  = "render %s report: %w"
	closeEncoderErrorTemplateConstant = "close yaml encoder: %w"
)

// ErrWriterNotConfigured indicates the renderer was constructed without an output writer.
var ErrWriterNotConfigured = errors.New(writerNotConfiguredMessage)

// ParseOutputFormat validates a configured output format. An empty value selects text.
func ParseOutputFormat(rawFormat string) (OutputFormat, error) {
	normalizedFormat := OutputFormat(strings.ToLower(strings.TrimSpace(rawFormat)))
	switch normalizedFormat {
	case "":
		return OutputFormatText, nil
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return normalizedFormat, nil
	default:
		return "", fmt.Errorf(unsupportedOutputFormatTemplate, rawFormat)
	}
}

// ParseColorMode validates a configured colour mode. An empty value selects auto.
func ParseColorMode(rawMode string) (ColorMode, error) {
	normalizedMode := ColorMode(strings.ToLower(strings.TrimSpace(rawMode)))
	switch normalizedMode {
	case "":
		return ColorModeAuto, nil
	case ColorModeAuto, ColorModeAlways, ColorModeNever:
		return normalizedMode, nil
	default:
		return "", fmt.Errorf(unsupportedColorModeTemplate, rawMode)
	}
}

// ResolveColorEnabled decides whether output written to writer should carry colour.
// Auto mode colours only terminals, looking through wrapping writers, and honours NO_COLOR.
func ResolveColorEnabled(mode ColorMode, writer io.Writer) bool {
	switch mode {
	case ColorModeAlways:
		return true
	case ColorModeNever:
		return false
	}
	if len(os.Getenv(noColorEnvironmentVariableName)) > 0 {
		return false
	}
	for {
		wrappingWriter, wraps := writer.(interface{ Unwrap() io.Writer })
		if !wraps {
			break
		}
		writer = wrappingWriter.Unwrap()
	}
	descriptorWriter, exposesDescriptor := writer.(interface{ Fd() uintptr })
	if !exposesDescriptor {
		return false
	}
	fileDescriptor := descriptorWriter.Fd()
	return isatty.IsTerminal(fileDescriptor) || isatty.IsCygwinTerminal(fileDescriptor)
}

// ReportRendererOptions configures a ReportRenderer.
type ReportRendererOptions struct {
	Format       OutputFormat
	ShowExcluded bool
	ColorEnabled bool
}

type reportRecord struct {
	Kind    string   `json:"kind" yaml:"kind"`
	Path    string   `json:"path,omitempty" yaml:"path,omitempty"`
	Reasons []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	Detail  string   `json:"detail,omitempty" yaml:"detail,omitempty"`
}

type labelPalette struct {
	warning  *color.Color
	failure  *color.Color
	unknown  *color.Color
	header   *color.Color
	excluded *color.Color
}

func newLabelPalette(colorEnabled bool) labelPalette {
	palette := labelPalette{
		warning:  color.New(color.FgYellow),
		failure:  color.New(color.FgRed),
		unknown:  color.New(color.FgMagenta),
		header:   color.New(color.Bold),
		excluded: color.New(color.Faint),
	}
	for _, labelColor := range []*color.Color{palette.warning, palette.failure, palette.unknown, palette.header, palette.excluded} {
		if colorEnabled {
			labelColor.EnableColor()
		} else {
			labelColor.DisableColor()
		}
	}
	return palette
}

// ReportRenderer writes traversal reports to a console writer. It implements mess.ReportSink.
type ReportRenderer struct {
	writer       io.Writer
	format       OutputFormat
	showExcluded bool
	palette      labelPalette
	jsonEncoder  *json.Encoder
	yamlEncoder  *yaml.Encoder
	writeError   error
}

// NewReportRenderer constructs a renderer writing through a flushing writer.
func NewReportRenderer(writer io.Writer, options ReportRendererOptions) (*ReportRenderer, error) {
	if writer == nil {
		return nil, ErrWriterNotConfigured
	}
	format, formatError := ParseOutputFormat(string(options.Format))
	if formatError != nil {
		return nil, formatError
	}

	flushingWriter := utils.NewFlushingWriter(writer)
	renderer := &ReportRenderer{
		writer:       flushingWriter,
		format:       format,
		showExcluded: options.ShowExcluded,
		palette:      newLabelPalette(options.ColorEnabled && format == OutputFormatText),
	}
	switch format {
	case OutputFormatJSON:
		renderer.jsonEncoder = json.NewEncoder(flushingWriter)
	case OutputFormatYAML:
		renderer.yamlEncoder = yaml.NewEncoder(flushingWriter)
	}
	return renderer, nil
}

// Emit renders a single report. Write failures are retained and returned by Close.
func (renderer *ReportRenderer) Emit(report mess.Report) {
	if renderer == nil || renderer.writeError != nil {
		return
	}
	if report.Kind == mess.ReportKindExcludedDirectory && !renderer.showExcluded {
		return
	}

	var renderError error
	switch renderer.format {
	case OutputFormatJSON:
		if report.Kind.IsFraming() {
			return
		}
		renderError = renderer.jsonEncoder.Encode(newReportRecord(report))
	case OutputFormatYAML:
		if report.Kind.IsFraming() {
			return
		}
		renderError = renderer.yamlEncoder.Encode(newReportRecord(report))
	default:
		_, renderError = io.WriteString(renderer.writer, renderer.formatText(report))
	}

	if renderError != nil {
		renderer.writeError = fmt.Errorf(renderWriteErrorTemplateConstant, report.Kind, renderError)
	}
}

// Close finishes any pending encoder output and reports the first write failure.
func (renderer *ReportRenderer) Close() error {
	if renderer == nil {
		return nil
	}
	if renderer.yamlEncoder != nil && renderer.writeError == nil {
		if closeError := renderer.yamlEncoder.Close(); closeError != nil {
			renderer.writeError = fmt.Errorf(closeEncoderErrorTemplateConstant, closeError)
		}
	}
	return renderer.writeError
}

func (renderer *ReportRenderer) formatText(report mess.Report) string {
	palette := renderer.palette
	switch report.Kind {
	case mess.ReportKindFile:
		return fmt.Sprintf(labeledLineTemplateConstant, fileLabelConstant, report.Path)
	case mess.ReportKindDirtyRepository:
		return fmt.Sprintf(dirtyRepositoryLineTemplate, palette.warning.Sprint(dirtyRepositoryLabelConstant), report.Path, strings.Join(report.Reasons, reasonSeparatorConstant))
	case mess.ReportKindUnknownEntry:
		return fmt.Sprintf(labeledLineTemplateConstant, palette.unknown.Sprint(unknownEntryLabelConstant), report.Path)
	case mess.ReportKindNotFound:
		return fmt.Sprintf(labeledLineTemplateConstant, palette.failure.Sprint(notFoundLabelConstant), report.Path)
	case mess.ReportKindUnreadableDirectory:
		return fmt.Sprintf(unreadableDirectoryLineTemplate, palette.failure.Sprint(unreadableDirectoryLabelConstant), report.Path, report.Detail)
	case mess.ReportKindCycleDetected:
		return fmt.Sprintf(labeledLineTemplateConstant, palette.failure.Sprint(cycleDetectedLabelConstant), report.Path)
	case mess.ReportKindExcludedDirectory:
		return fmt.Sprintf(labeledLineTemplateConstant, palette.excluded.Sprint(excludedDirectoryLabelConstant), report.Path)
	case mess.ReportKindRootHeader:
		return palette.header.Sprint(fmt.Sprintf(rootHeaderLineTemplateConstant, report.Path)) + newlineConstant
	case mess.ReportKindRootSeparator:
		return newlineConstant
	default:
		return ""
	}
}

func newReportRecord(report mess.Report) reportRecord {
	return reportRecord{
		Kind:    string(report.Kind),
		Path:    report.Path,
		Reasons: report.Reasons,
		Detail:  report.Detail,
	}
}
