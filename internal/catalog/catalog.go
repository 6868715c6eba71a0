// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Control is a named compliance requirement together with the keywords used
// to find evidence of it and the reference codes (CCIs) that join it to
// report rows.
type Control struct {
	Name           string   `yaml:"name" json:"name"`
	TopicTerms     []string `yaml:"topic_terms" json:"topic_terms"`
	DetailTerms    []string `yaml:"detail_terms" json:"detail_terms"`
	Prompt         string   `yaml:"prompt" json:"prompt"`
	AnalystInput   string   `yaml:"analyst_input" json:"analyst_input,omitempty"`
	ReferenceCodes Codes    `yaml:"reference_codes" json:"reference_codes"`
}

// clone returns a deep copy so callers can never mutate catalog entries.
func (c Control) clone() Control {
	c.TopicTerms = slices.Clone(c.TopicTerms)
	c.DetailTerms = slices.Clone(c.DetailTerms)
	c.ReferenceCodes = slices.Clone(c.ReferenceCodes)
	return c
}

// Validate checks that a control can be searched for and reported on
func (c Control) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("control name cannot be empty")
	}
	if len(c.DetailTerms) == 0 {
		return fmt.Errorf("control %q: at least one detail term is required", c.Name)
	}
	for _, term := range append(slices.Clone(c.TopicTerms), c.DetailTerms...) {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("control %q: search terms cannot be empty", c.Name)
		}
	}
	if len(c.ReferenceCodes) == 0 {
		return fmt.Errorf("control %q: at least one reference code is required", c.Name)
	}
	return nil
}

// Codes is an ordered list of reference codes. In YAML it may be written
// either as a list or as a single comma-separated string.
type Codes []string

// UnmarshalYAML accepts "CCI-1, CCI-2" as well as [CCI-1, CCI-2]
func (c *Codes) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = ParseCodes(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*c = ParseCodes(strings.Join(items, ","))
		return nil
	default:
		return fmt.Errorf("reference_codes must be a string or a list")
	}
}

// String renders the codes the way report rows and prompts show them
func (c Codes) String() string {
	return strings.Join(c, ", ")
}

// ParseCodes splits a comma-separated reference code string, trimming
// whitespace around each code and dropping empty entries.
func ParseCodes(s string) []string {
	var codes []string
	for _, part := range strings.Split(s, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// Catalog is an ordered, read-only set of controls keyed by name
type Catalog struct {
	controls []Control
	index    map[string]int
}

// New builds a catalog from controls, rejecting invalid or duplicate entries.
func New(controls []Control) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(controls))}
	for _, control := range controls {
		if err := c.put(control, false); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) put(control Control, replace bool) error {
	if err := control.Validate(); err != nil {
		return err
	}
	if i, exists := c.index[control.Name]; exists {
		if !replace {
			return fmt.Errorf("duplicate control %q", control.Name)
		}
		c.controls[i] = control.clone()
		return nil
	}
	c.index[control.Name] = len(c.controls)
	c.controls = append(c.controls, control.clone())
	return nil
}

// Get returns a copy of the named control
func (c *Catalog) Get(name string) (Control, bool) {
	i, ok := c.index[name]
	if !ok {
		return Control{}, false
	}
	return c.controls[i].clone(), true
}

// Names returns control names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.controls))
	for i, control := range c.controls {
		names[i] = control.Name
	}
	return names
}

// Controls returns copies of all controls in catalog order
func (c *Catalog) Controls() []Control {
	controls := make([]Control, len(c.controls))
	for i, control := range c.controls {
		controls[i] = control.clone()
	}
	return controls
}

// Len returns the number of controls
func (c *Catalog) Len() int {
	return len(c.controls)
}

// catalogFile is the on-disk shape of a catalog overlay
type catalogFile struct {
	Controls []Control `yaml:"controls"`
}

// Load returns the built-in catalog with the controls from the YAML file at
// path layered on top. Controls whose name matches a built-in replace it;
// new names are appended. An empty path yields the built-ins.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing catalog file: %w", err)
	}

	for _, control := range file.Controls {
		if err := c.put(control, true); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
	}
	return c, nil
}
