package mess

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

const (
	defaultRootPathConstant          = "./"
	walkerNotConfiguredMessage       = "service requires a walker"
	rootStartedMessageConstant       = "inspecting root"
	logFieldRootArgumentConstant     = "root_argument"
	logFieldExpandedRootPathConstant = "expanded_root_path"
)

// ErrWalkerNotConfigured indicates the service was constructed without a walker.
var ErrWalkerNotConfigured = errors.New(walkerNotConfiguredMessage)

// PathExpander rewrites user-supplied root arguments before they are walked.
type PathExpander interface {
	Expand(candidatePath string) string
}

// RootDisplayer reports on a single root.
type RootDisplayer interface {
	Display(executionContext context.Context, path string, originalArgument string, announceRoot bool) error
}

// CommandOptions holds the roots requested on the command line.
type CommandOptions struct {
	Roots []string
}

// Service runs the traversal over every requested root in order.
type Service struct {
	displayer    RootDisplayer
	pathExpander PathExpander
	logger       *zap.Logger
}

// NewService constructs a Service. A nil expander leaves arguments untouched.
func NewService(displayer RootDisplayer, pathExpander PathExpander, logger *zap.Logger) (*Service, error) {
	if displayer == nil {
		return nil, ErrWalkerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{displayer: displayer, pathExpander: pathExpander, logger: logger}, nil
}

// Run walks "./" without a header when no roots are given. Otherwise each root
// is walked in argument order and framed by a header when more than one root
// was supplied.
func (service *Service) Run(executionContext context.Context, options CommandOptions) error {
	if len(options.Roots) == 0 {
		service.logger.Debug(rootStartedMessageConstant, zap.String(logFieldRootArgumentConstant, defaultRootPathConstant))
		return service.displayer.Display(executionContext, defaultRootPathConstant, defaultRootPathConstant, false)
	}

	announceRoots := len(options.Roots) > 1
	for _, rootArgument := range options.Roots {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		expandedRoot := service.expand(rootArgument)
		service.logger.Debug(rootStartedMessageConstant, zap.String(logFieldRootArgumentConstant, rootArgument), zap.String(logFieldExpandedRootPathConstant, expandedRoot))
		if displayError := service.displayer.Display(executionContext, expandedRoot, rootArgument, announceRoots); displayError != nil {
			return displayError
		}
	}
	return nil
}

func (service *Service) expand(rootArgument string) string {
	if service.pathExpander == nil {
		return rootArgument
	}
	return service.pathExpander.Expand(rootArgument)
}
