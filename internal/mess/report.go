package mess

// ReportKind classifies a traversal report.
type ReportKind string

// Supported report kinds.
const (
	ReportKindFile                ReportKind = ReportKind("file")
	ReportKindExcludedDirectory   ReportKind = ReportKind("excluded_directory")
	ReportKindDirtyRepository     ReportKind = ReportKind("dirty_repository")
	ReportKindUnknownEntry        ReportKind = ReportKind("unknown_entry")
	ReportKindNotFound            ReportKind = ReportKind("not_found")
	ReportKindUnreadableDirectory ReportKind = ReportKind("unreadable_directory")
	ReportKindCycleDetected       ReportKind = ReportKind("cycle_detected")
	ReportKindRootHeader          ReportKind = ReportKind("root_header")
	ReportKindRootSeparator       ReportKind = ReportKind("root_separator")
)

// IsFraming reports whether the kind only delimits the output of a root.
func (kind ReportKind) IsFraming() bool {
	return kind == ReportKindRootHeader || kind == ReportKindRootSeparator
}

// Report is a single traversal event. Path holds the original argument text
// for RootHeader and NotFound reports.
type Report struct {
	Kind    ReportKind
	Path    string
	Reasons []string
	Detail  string
}

// ReportSink consumes reports as they are produced.
type ReportSink interface {
	Emit(report Report)
}

// ReportCollector stores reports in memory.
type ReportCollector struct {
	Reports []Report
}

// Emit appends the report.
func (collector *ReportCollector) Emit(report Report) {
	collector.Reports = append(collector.Reports, report)
}
