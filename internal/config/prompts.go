package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompt is one question read from a prompt file. ID is empty when the file
// does not assign one.
type Prompt struct {
	ID     string `yaml:"id"`
	Prompt string `yaml:"prompt"`
}

// UnmarshalYAML accepts both a bare string and an {id, prompt} mapping.
func (p *Prompt) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.ID = ""
		return node.Decode(&p.Prompt)
	}

	type plain Prompt
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*p = Prompt(decoded)
	return nil
}

// LoadPrompts reads a YAML prompt file. The document is either a list of
// prompts or a mapping with a "prompts" list; each prompt is a string or an
// {id, prompt} mapping:
//
//	prompts:
//	  - What is 25 + 17?
//	  - id: division
//	    prompt: What is 100 ÷ 4?
func LoadPrompts(path string) ([]Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	prompts, err := ParsePrompts(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt file %s: %w", path, err)
	}
	return prompts, nil
}

// ParsePrompts decodes prompt file content. See LoadPrompts for the format.
func ParsePrompts(data []byte) ([]Prompt, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, errors.New("empty document")
	}

	document := root.Content[0]
	var prompts []Prompt
	switch document.Kind {
	case yaml.SequenceNode:
		if err := document.Decode(&prompts); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var wrapped struct {
			Prompts []Prompt `yaml:"prompts"`
		}
		if err := document.Decode(&wrapped); err != nil {
			return nil, err
		}
		prompts = wrapped.Prompts
	default:
		return nil, fmt.Errorf("expected a list or a mapping with a prompts key, got %s", nodeKind(document.Kind))
	}

	if len(prompts) == 0 {
		return nil, errors.New("no prompts")
	}
	return prompts, nil
}

func nodeKind(kind yaml.Kind) string {
	switch kind {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return fmt.Sprintf("node kind %d", kind)
	}
}
