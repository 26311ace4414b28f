package sync

import (
	"log/slog"
	"time"
)

// DefaultFolderPattern selects the folders the Notes application uses.
const DefaultFolderPattern = "Notes*"

// DefaultFolder receives new notes that have no folder of their own.
const DefaultFolder = "Notes"

// settings are shared by the Engine, Resolver and Coordinator.
type settings struct {
	logger        *slog.Logger
	folderPattern string
	defaultFolder string
	timeout       time.Duration
}

func defaultSettings() settings {
	return settings{
		logger:        slog.Default(),
		folderPattern: DefaultFolderPattern,
		defaultFolder: DefaultFolder,
		timeout:       2 * time.Minute,
	}
}

// Option configures an Engine, Resolver or Coordinator.
type Option func(*settings)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFolderPattern sets the LIST pattern used to find note folders.
func WithFolderPattern(pattern string) Option {
	return func(s *settings) {
		if pattern != "" {
			s.folderPattern = pattern
		}
	}
}

// WithDefaultFolder sets the folder new notes are pushed to.
func WithDefaultFolder(folder string) Option {
	return func(s *settings) {
		if folder != "" {
			s.defaultFolder = folder
		}
	}
}

// WithTimeout bounds a single coordinator task.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
