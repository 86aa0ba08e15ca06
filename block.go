package wsmux

import (
	"fmt"
	"sync"
)

// Component represents any building block that can be part of a Block.
// Multiplexer and Reader implement this interface.
type Component interface {
	// Stop stops the component and cleans up resources
	Stop() error

	// IsRunning returns true if the component is currently running
	IsRunning() bool
}

// Block is a named group of components that are stopped together.
// A Block itself acts as a component and can be nested within other Blocks.
type Block struct {
	name       string
	components []Component
	mu         sync.RWMutex
}

// NewBlock creates a new block with the given name
func NewBlock(name string) *Block {
	return &Block{
		name:       name,
		components: make([]Component, 0),
	}
}

// Add adds components to this block
func (b *Block) Add(components ...Component) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.components = append(b.components, components...)
}

// Stop stops all components in this block in reverse order, so components
// added later (usually consumers) stop before the ones they depend on.
// It stops at the first component that fails.
func (b *Block) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(b.components) - 1; i >= 0; i-- {
		if err := b.components[i].Stop(); err != nil {
			return fmt.Errorf("failed to stop component %d of %s: %w", i, b.name, err)
		}
	}
	return nil
}

// IsRunning returns true if any component in the block is running
func (b *Block) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, comp := range b.components {
		if comp.IsRunning() {
			return true
		}
	}
	return false
}

// Name returns the block's name
func (b *Block) Name() string {
	return b.name
}

// Count returns the number of components in this block
func (b *Block) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.components)
}
