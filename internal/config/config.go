// Package config loads the port specification portkeeper reserves.
//
// A configuration source is a flat key-value document with two keys:
//
//	ports          comma-separated ports and ranges to reserve (required)
//	ports.exclude  ports and ranges removed from the above (optional)
//
// Three file formats are accepted, chosen by extension:
//   - .properties: Java-style properties (github.com/magiconair/properties)
//   - .yaml, .yml: a YAML mapping (gopkg.in/yaml.v3)
//   - .json, .jsonc: JSON with comments (github.com/tidwall/jsonc)
//
// Every failure to produce a specification wraps
// model.ErrConfigurationUnavailable.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/portkeeper/internal/model"
)

const (
	// KeyPorts is the configuration key for the ports to reserve.
	KeyPorts = "ports"

	// KeyPortsExclude is the configuration key for ports to leave alone.
	KeyPortsExclude = "ports.exclude"
)

// DefaultFileNames are the configuration files Find looks for, in order
// of preference. The properties file comes first as it is the historical
// format.
var DefaultFileNames = []string{
	"portkeeper.properties",
	"portkeeper.yaml",
	"portkeeper.yml",
	"portkeeper.json",
}

// File is a loaded configuration file.
type File struct {
	// Path is the file the configuration was read from.
	Path string

	// Spec is the port specification found in the file.
	Spec model.PortSpec
}

// PortSpec returns the specification in the file. It lets *File act as a
// specification source for the lifecycle controller.
func (f *File) PortSpec() (model.PortSpec, error) {
	return f.Spec, nil
}

// Load reads the configuration file at path and extracts the port
// specification. The format is chosen from the file extension.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s not found", model.ErrConfigurationUnavailable, path)
		}
		return nil, fmt.Errorf("%w: read %s: %w", model.ErrConfigurationUnavailable, path, err)
	}

	values, err := parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", model.ErrConfigurationUnavailable, path, err)
	}

	spec := model.PortSpec{
		Include: values[KeyPorts],
		Exclude: values[KeyPortsExclude],
	}
	if spec.IsEmpty() {
		return nil, fmt.Errorf("%w: %s has no %q key", model.ErrConfigurationUnavailable, path, KeyPorts)
	}

	return &File{Path: path, Spec: spec}, nil
}

// Find returns the first of DefaultFileNames that exists in dir.
func Find(dir string) (string, error) {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: none of %s found in %s",
		model.ErrConfigurationUnavailable, strings.Join(DefaultFileNames, ", "), dir)
}

// parse decodes data according to the extension of path and returns the
// flat key-value pairs it contains.
func parse(path string, data []byte) (map[string]string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".properties":
		return parseProperties(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".json", ".jsonc":
		return parseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported configuration format %q (use .properties, .yaml or .json)", ext)
	}
}

// parseProperties decodes Java-style properties. Only the two keys we know
// are read; anything else in the file is ignored.
func parseProperties(data []byte) (map[string]string, error) {
	// ${...} expansion is a properties feature port lists have no use for.
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, 2)
	for _, key := range []string{KeyPorts, KeyPortsExclude} {
		if v, ok := p.Get(key); ok {
			values[key] = v
		}
	}
	return values, nil
}

// parseYAML decodes a YAML mapping. Values may be strings or numbers
// ("ports: 8080" is as valid as "ports: \"8080-8090\"").
func parseYAML(data []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return flatten(raw)
}

// parseJSON strips JSONC comments and trailing commas, then decodes a JSON
// object the same way as parseYAML.
func parseJSON(data []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, err
	}
	return flatten(raw)
}

// flatten converts decoded values of the known keys to strings. Lists are
// joined with commas so ["5000-5010", 6000] reads as "5000-5010,6000".
func flatten(raw map[string]interface{}) (map[string]string, error) {
	values := make(map[string]string, 2)
	for _, key := range []string{KeyPorts, KeyPortsExclude} {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		s, err := stringify(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		values[key] = s
	}
	return values, nil
}

func stringify(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case float64:
		if t != float64(int(t)) {
			return "", fmt.Errorf("%v is not a whole number", t)
		}
		return strconv.Itoa(int(t)), nil
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, err := stringify(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Static is a specification given directly, e.g. from command-line flags.
type Static model.PortSpec

// PortSpec returns the static specification, failing with
// model.ErrConfigurationUnavailable when no ports were given.
func (s Static) PortSpec() (model.PortSpec, error) {
	spec := model.PortSpec(s)
	if spec.IsEmpty() {
		return model.PortSpec{}, fmt.Errorf("%w: no ports given", model.ErrConfigurationUnavailable)
	}
	return spec, nil
}

// Options selects where the specification comes from. Explicit values
// override those read from a file.
type Options struct {
	// Path is the configuration file. Empty means look in Dir.
	Path string

	// Dir is searched with Find when Path is empty.
	Dir string

	// Ports and Exclude override the file values when non-empty.
	Ports   string
	Exclude string
}

// Resolve builds the specification described by opts. When Ports is given
// and no file was named explicitly, no file is needed at all.
func Resolve(opts Options) (model.PortSpec, error) {
	override := model.PortSpec{Include: opts.Ports, Exclude: opts.Exclude}
	if opts.Path == "" && !override.IsEmpty() {
		return Static(override).PortSpec()
	}

	path := opts.Path
	if path == "" {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		found, err := Find(dir)
		if err != nil {
			return model.PortSpec{}, err
		}
		path = found
	}

	f, err := Load(path)
	if err != nil {
		return model.PortSpec{}, err
	}

	spec := f.Spec
	if !override.IsEmpty() {
		spec.Include = override.Include
	}
	if strings.TrimSpace(override.Exclude) != "" {
		spec.Exclude = override.Exclude
	}
	return spec, nil
}

// Source adapts Options to the lifecycle controller's specification
// source, so the file is read during the controller's initialisation.
type Source Options

// PortSpec loads the specification described by the options.
func (s Source) PortSpec() (model.PortSpec, error) {
	return Resolve(Options(s))
}
