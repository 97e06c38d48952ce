package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SecretsFile is looked up next to the file that uses !secret.
const SecretsFile = "secrets.yaml"

const maxIncludeDepth = 10

// isYAMLFile reports whether path should be read with readYAMLFile.
func isYAMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlReader resolves the local tags of a YAML config file:
//
//	!secret NAME          value of NAME in secrets.yaml beside the file
//	!include FILE         contents of FILE, relative to the including file
//	!include {file: FILE} same as above
//	!env_var NAME [DEF]   environment variable NAME, or DEF when unset
type yamlReader struct {
	secrets map[string]map[string]*yaml.Node
	depth   int
}

// readYAMLFile parses path with its tags resolved.
func readYAMLFile(path string) (map[string]any, error) {
	r := &yamlReader{secrets: make(map[string]map[string]*yaml.Node)}

	root, err := r.load(path)
	if err != nil {
		return nil, err
	}

	settings := make(map[string]any)
	if root == nil {
		return settings, nil
	}
	if err := root.Decode(&settings); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// load parses path and returns its resolved root node, or nil for an empty
// document.
func (r *yamlReader) load(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if err := r.resolve(path, root); err != nil {
		return nil, err
	}
	return root, nil
}

func (r *yamlReader) resolve(path string, n *yaml.Node) error {
	switch n.Tag {
	case "!secret":
		return r.resolveSecret(path, n)
	case "!include":
		return r.resolveInclude(path, n)
	case "!env_var":
		return resolveEnvVar(path, n)
	}

	if n.Kind == yaml.AliasNode {
		return nil
	}
	for _, child := range n.Content {
		if err := r.resolve(path, child); err != nil {
			return err
		}
	}
	return nil
}

func tagError(path string, n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%w: %s:%d: %s", ErrConfigTag, path, n.Line, fmt.Sprintf(format, args...))
}

func (r *yamlReader) resolveSecret(path string, n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return tagError(path, n, "!secret expects a name")
	}

	secretsPath := filepath.Join(filepath.Dir(path), SecretsFile)
	secrets, ok := r.secrets[secretsPath]
	if !ok {
		var err error
		if secrets, err = loadSecrets(secretsPath); err != nil {
			return tagError(path, n, "%v", err)
		}
		r.secrets[secretsPath] = secrets
	}

	value, ok := secrets[n.Value]
	if !ok {
		return tagError(path, n, "secret %q not defined", n.Value)
	}
	*n = *value
	return nil
}

func loadSecrets(path string) (map[string]*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var secrets map[string]*yaml.Node
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return secrets, nil
}

func (r *yamlReader) resolveInclude(path string, n *yaml.Node) error {
	var file string
	switch n.Kind {
	case yaml.ScalarNode:
		file = n.Value
	case yaml.MappingNode:
		var fields struct {
			File string `yaml:"file"`
		}
		body := *n
		body.Tag = "!!map"
		if err := body.Decode(&fields); err != nil {
			return tagError(path, n, "%v", err)
		}
		file = fields.File
	}
	if file == "" {
		return tagError(path, n, "!include requires a file")
	}

	if r.depth >= maxIncludeDepth {
		return tagError(path, n, "includes nested deeper than %d", maxIncludeDepth)
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(filepath.Dir(path), file)
	}

	r.depth++
	included, err := r.load(file)
	r.depth--
	if err != nil {
		return tagError(path, n, "include %s: %v", file, err)
	}

	if included == nil {
		*n = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Line: n.Line}
		return nil
	}
	*n = *included
	return nil
}

func resolveEnvVar(path string, n *yaml.Node) error {
	args := strings.Fields(n.Value)
	if n.Kind != yaml.ScalarNode || len(args) == 0 {
		return tagError(path, n, "!env_var expects a variable name")
	}

	value, ok := os.LookupEnv(args[0])
	if !ok {
		if len(args) == 1 {
			return tagError(path, n, "environment variable %q not defined", args[0])
		}
		value = strings.Join(args[1:], " ")
	}

	*n = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Line: n.Line}
	return nil
}
