package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leofalp/batchcalc/providers/ai"
)

// Catalog manages a collection of tools with thread-safe operations.
// Names are matched case-insensitively.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
}

// NewCatalog creates a new empty tool catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tools: make(map[string]GenericTool),
	}
}

// NewCatalogWithTools creates a new catalog pre-populated with the given tools.
func NewCatalogWithTools(tools ...GenericTool) *Catalog {
	catalog := NewCatalog()
	catalog.AddTools(tools...)
	return catalog
}

// AddTools adds tools to the catalog under their ToolInfo().Name. A tool with
// the same name is replaced.
func (c *Catalog) AddTools(tools ...GenericTool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tools {
		info := t.ToolInfo()
		c.tools[strings.ToLower(info.Name)] = t
	}
}

// Get retrieves a tool by name.
func (c *Catalog) Get(name string) (GenericTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tool, exists := c.tools[strings.ToLower(name)]
	return tool, exists
}

// Has checks if a tool with the given name exists.
func (c *Catalog) Has(name string) bool {
	_, exists := c.Get(name)
	return exists
}

// Remove removes a tool by name and reports whether it was present.
func (c *Catalog) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	lowerName := strings.ToLower(name)
	if _, exists := c.tools[lowerName]; exists {
		delete(c.tools, lowerName)
		return true
	}
	return false
}

// Size returns the number of tools in the catalog.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

// Clone returns an independent copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := NewCatalog()
	for name, tool := range c.tools {
		clone.tools[name] = tool
	}
	return clone
}

// Descriptions returns the ToolInfo of every tool, sorted by name so request
// payloads are stable.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()

	descriptions := make([]ai.ToolDescription, 0, len(c.tools))
	for _, tool := range c.tools {
		descriptions = append(descriptions, tool.ToolInfo())
	}
	sort.Slice(descriptions, func(i, j int) bool {
		return descriptions[i].Name < descriptions[j].Name
	})
	return descriptions
}

// Call dispatches inputJson to the tool called name. Names the catalog does
// not hold yield [ErrUnknownTool].
func (c *Catalog) Call(ctx context.Context, name, inputJson string) (string, error) {
	tool, ok := c.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return tool.Call(ctx, inputJson)
}
