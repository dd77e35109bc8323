package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/interviewace/interviewace/pkg/provider/landmark"
	"github.com/interviewace/interviewace/pkg/provider/llm"
	"github.com/interviewace/interviewace/pkg/provider/stt"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// factoryMap holds named constructors for one provider kind.
type factoryMap[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]func(ProviderEntry) (T, error)
}

func newFactoryMap[T any](kind string) *factoryMap[T] {
	return &factoryMap[T]{
		kind:      kind,
		factories: make(map[string]func(ProviderEntry) (T, error)),
	}
}

// register stores a factory under name, overwriting any previous registration.
func (fm *factoryMap[T]) register(name string, factory func(ProviderEntry) (T, error)) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.factories[name] = factory
}

// create instantiates a provider from the factory registered under entry.Name.
func (fm *factoryMap[T]) create(entry ProviderEntry) (T, error) {
	fm.mu.RLock()
	factory, ok := fm.factories[entry.Name]
	fm.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s/%q", ErrProviderNotRegistered, fm.kind, entry.Name)
	}
	return factory(entry)
}

// Registry maps provider names to their constructor functions for each
// provider kind. It is safe for concurrent use.
type Registry struct {
	llm      *factoryMap[llm.Provider]
	stt      *factoryMap[stt.Transcriber]
	landmark *factoryMap[landmark.Detector]
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:      newFactoryMap[llm.Provider]("llm"),
		stt:      newFactoryMap[stt.Transcriber]("stt"),
		landmark: newFactoryMap[landmark.Detector]("landmark"),
	}
}

// RegisterLLM registers an LLM provider factory under name. Later calls with
// the same name overwrite earlier ones.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.llm.register(name, factory)
}

// RegisterSTT registers a transcriber factory under name.
func (r *Registry) RegisterSTT(name string, factory func(ProviderEntry) (stt.Transcriber, error)) {
	r.stt.register(name, factory)
}

// RegisterLandmark registers a landmark detector factory under name.
func (r *Registry) RegisterLandmark(name string, factory func(ProviderEntry) (landmark.Detector, error)) {
	r.landmark.register(name, factory)
}

// CreateLLM instantiates the LLM provider named by entry. Returns
// [ErrProviderNotRegistered] when the name is unknown.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	return r.llm.create(entry)
}

// CreateSTT instantiates the transcriber named by entry.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Transcriber, error) {
	return r.stt.create(entry)
}

// CreateLandmark instantiates the landmark detector named by entry.
func (r *Registry) CreateLandmark(entry ProviderEntry) (landmark.Detector, error) {
	return r.landmark.create(entry)
}
