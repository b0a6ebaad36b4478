// Package executors runs a batch of export files through their adapters and
// the dedup engine.
package executors

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/yurifrl/ledgeru/pkg/adapter"
	"github.com/yurifrl/ledgeru/pkg/config"
	"github.com/yurifrl/ledgeru/pkg/service"
)

// Input is one export file and the adapter that reads it.
type Input struct {
	Adapter string
	Path    string
}

type Executor struct {
	logger    *log.Logger
	config    *config.Config
	registry  *adapter.Registry
	processor *service.Processor
}

func New(logger *log.Logger, config *config.Config, registry *adapter.Registry, processor *service.Processor) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	if processor == nil {
		processor = service.NewProcessor(logger)
	}
	return &Executor{
		logger:    logger,
		config:    config,
		registry:  registry,
		processor: processor,
	}
}

// Adapter returns a registered adapter by name.
func (e *Executor) Adapter(name string) (adapter.Adapter, error) {
	return e.registry.Get(name)
}

func (e *Executor) workers() int {
	if e.config == nil || e.config.Workers < 1 {
		return 1
	}
	return e.config.Workers
}

// resolve looks up the adapter of every input before any file is read, so a
// misconfigured batch fails before doing work.
func (e *Executor) resolve(inputs []Input) ([]adapter.Adapter, error) {
	adapters := make([]adapter.Adapter, len(inputs))
	for i, in := range inputs {
		a, err := e.registry.Get(in.Adapter)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in.Path, err)
		}
		adapters[i] = a
	}
	return adapters, nil
}
