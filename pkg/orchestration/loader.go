package orchestration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OperationDefinition is the YAML shape of a declarative operation file.
type OperationDefinition struct {
	// Operation is the unique operation id; files without it are not
	// operation definitions.
	Operation   string `yaml:"operation" json:"operation"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// MaxParallelWorkers caps group concurrency for this operation.
	MaxParallelWorkers int `yaml:"max_parallel_workers,omitempty" json:"max_parallel_workers,omitempty"`
	// Context seeds the shared context before the caller's context merges in.
	Context map[string]any `yaml:"context,omitempty" json:"context,omitempty"`
	// Modules references registered modules in declaration order.
	Modules []ModuleRef `yaml:"modules" json:"modules"`
}

// ModuleRef references one registered module plus its configuration.
// Optional and DependsOn override the module's own metadata for this
// operation only.
type ModuleRef struct {
	ID        string       `yaml:"id" json:"id"`
	Config    ModuleConfig `yaml:"config,omitempty" json:"config,omitempty"`
	Optional  *bool        `yaml:"optional,omitempty" json:"optional,omitempty"`
	DependsOn []string     `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
}

// LoadOperation reads an operation definition from disk and resolves its
// modules through the registry.
func LoadOperation(path string, registry *Registry) (*Operation, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading operation file: %w", err)
	}
	def, err := ParseOperationDefinition(content)
	if err != nil {
		return nil, err
	}
	return BuildOperation(def, registry)
}

// ParseOperationDefinition unmarshals and validates an operation definition.
func ParseOperationDefinition(content []byte) (*OperationDefinition, error) {
	var def OperationDefinition
	if err := yaml.Unmarshal(content, &def); err != nil {
		return nil, fmt.Errorf("parsing operation definition: %w", err)
	}

	if def.Operation == "" {
		return nil, ErrNotAnOperation{Reason: "no 'operation' field in definition"}
	}
	if len(def.Modules) == 0 {
		return nil, fmt.Errorf("operation %s declares no modules", def.Operation)
	}

	seen := make(map[string]bool, len(def.Modules))
	for _, ref := range def.Modules {
		if ref.ID == "" {
			return nil, fmt.Errorf("operation %s: %w", def.Operation, ErrEmptyModuleID)
		}
		if seen[ref.ID] {
			return nil, fmt.Errorf("operation %s: %w: %s", def.Operation, ErrDuplicateModuleID, ref.ID)
		}
		seen[ref.ID] = true
	}

	if def.Name == "" {
		def.Name = def.Operation
	}
	return &def, nil
}

// BuildOperation resolves every module reference and assembles the runnable
// Operation. Module construction order follows the declaration order; the
// scheduler decides the execution order.
func BuildOperation(def *OperationDefinition, registry *Registry) (*Operation, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	modules := make([]Module, 0, len(def.Modules))
	for _, ref := range def.Modules {
		m, err := registry.Resolve(ref.ID, ref.Config)
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", def.Operation, err)
		}
		modules = append(modules, applyOverrides(m, ref))
	}

	initial := Context{}
	initial.Merge(def.Context)

	return &Operation{
		ID:                 def.Operation,
		Name:               def.Name,
		Modules:            modules,
		InitialContext:     initial,
		MaxParallelWorkers: def.MaxParallelWorkers,
	}, nil
}

// applyOverrides wraps a module when its reference carries metadata
// overrides; modules without overrides pass through untouched.
func applyOverrides(m Module, ref ModuleRef) Module {
	if ref.Optional == nil && len(ref.DependsOn) == 0 {
		return m
	}
	meta := m.Metadata()
	if ref.Optional != nil {
		meta.Optional = *ref.Optional
	}
	if len(ref.DependsOn) > 0 {
		deps := append([]string{}, meta.Dependencies...)
		meta.Dependencies = append(deps, ref.DependsOn...)
	}
	return &overriddenModule{Module: m, meta: meta}
}

// overriddenModule carries per-operation metadata on top of a registered
// module. Mode stamping passes through to the wrapped module.
type overriddenModule struct {
	Module
	meta ModuleMetadata
}

func (o *overriddenModule) Metadata() ModuleMetadata { return o.meta }

func (o *overriddenModule) SetMode(mode ExecutionMode) {
	if ma, ok := o.Module.(ModeAware); ok {
		ma.SetMode(mode)
	}
}
