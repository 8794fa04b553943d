package adapt

import (
	"log/slog"

	"github.com/cpswtree/catree/pkg/ca"
	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/tree"
)

// Config configures an Adapter.
type Config struct {
	// Client opens the channels of every adapted leaf.
	Client ca.Client

	// Namer derives channel names. The zero value hashes without prefixes
	// or truncation; use chname.DefaultNamer for the deployment defaults.
	Namer chname.Namer

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Adapter holds what every adapted path shares: the client, the naming
// parameters and the logger.
type Adapter struct {
	client ca.Client
	namer  chname.Namer
	logger *slog.Logger
}

// New creates an Adapter.
func New(cfg Config) *Adapter {
	return &Adapter{
		client: cfg.Client,
		namer:  cfg.Namer,
		logger: cfg.Logger,
	}
}

// Namer returns the naming parameters.
func (a *Adapter) Namer() chname.Namer {
	return a.namer
}

// Client returns the channel client.
func (a *Adapter) Client() ca.Client {
	return a.client
}

// Wrap adapts a tree path.
func (a *Adapter) Wrap(p tree.Path) *Path {
	return &Path{adapter: a, path: p}
}

// LoadYAMLFile loads a tree with tree.LoadYAMLFile and wraps its root.
func (a *Adapter) LoadYAMLFile(file, root, incDir string, fix tree.FixFunc) (*Path, error) {
	n, err := tree.LoadYAMLFile(file, root, incDir, fix)
	if err != nil {
		return nil, err
	}
	return a.Wrap(n), nil
}

func (a *Adapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
