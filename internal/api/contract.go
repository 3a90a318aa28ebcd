// Package api loads the table of API interfaces the injector implements:
// each interface lists accessor methods tagged with the exported name they
// import and whether they set or get it.
package api

import (
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"

	"deobinject/internal/jvmfmt"
)

// Contract is a loaded API table.
type Contract struct {
	// Prefix is prepended to @Implements values to name an interface.
	Prefix string `yaml:"prefix" json:"prefix"`
	// Client is the interface implemented by the client class.
	Client     string       `yaml:"client" json:"client"`
	Interfaces []*Interface `yaml:"interfaces" json:"interfaces"`

	byName map[string]*Interface
	hier   graph.Graph[string, string]
}

// Interface is one API interface.
type Interface struct {
	Name    string    `yaml:"name" json:"name"`
	Extends []string  `yaml:"extends,omitempty" json:"extends,omitempty"`
	Methods []*Method `yaml:"methods,omitempty" json:"methods,omitempty"`
}

// Method is one API accessor.
type Method struct {
	Name    string        `yaml:"name" json:"name"`
	Import  string        `yaml:"import,omitempty" json:"import,omitempty"`
	Setter  bool          `yaml:"setter,omitempty" json:"setter,omitempty"`
	Args    []jvmfmt.Type `yaml:"args,omitempty" json:"args,omitempty"`
	Returns jvmfmt.Type   `yaml:"returns" json:"returns"`
	// Synthetic marks bridge methods; they are never matched.
	Synthetic bool `yaml:"synthetic,omitempty" json:"synthetic,omitempty"`
}

// Descriptor returns the method descriptor.
func (m *Method) Descriptor() string {
	return jvmfmt.Signature{Args: m.Args, Return: m.Returns}.String()
}

// Load reads a contract file.
func Load(file string) (*Contract, error) {
	f, err := os.Open(file) // #nosec
	if err != nil {
		return nil, err
	}
	defer f.Close()
	log.WithField("file", file).Debug("loading api contract")
	c, err := LoadReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "api contract %s", file)
	}
	return c, nil
}

// LoadReader reads a contract from r.
func LoadReader(r io.Reader) (*Contract, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and indexes a YAML contract.
func Parse(data []byte) (*Contract, error) {
	var c Contract
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "failed to parse api contract")
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

// New builds a contract from interfaces already in memory.
func New(prefix, client string, ifaces ...*Interface) (*Contract, error) {
	c := &Contract{Prefix: prefix, Client: client, Interfaces: ifaces}
	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Contract) index() error {
	c.Prefix = internal(c.Prefix)
	c.Client = internal(c.Client)
	c.byName = make(map[string]*Interface, len(c.Interfaces))
	c.hier = graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	for _, i := range c.Interfaces {
		i.Name = internal(i.Name)
		if i.Name == "" {
			return errors.New("api contract: interface without a name")
		}
		if _, dup := c.byName[i.Name]; dup {
			return errors.Errorf("api contract: interface %s declared twice", i.Name)
		}
		c.byName[i.Name] = i
		for _, m := range i.Methods {
			if m.Returns == "" {
				m.Returns = jvmfmt.Void
			}
			if _, err := jvmfmt.ParseSignature(m.Descriptor()); err != nil {
				return errors.Wrapf(err, "api contract: %s.%s", i.Name, m.Name)
			}
		}
	}
	for _, i := range c.Interfaces {
		_ = c.hier.AddVertex(i.Name)
		for k, ext := range i.Extends {
			ext = internal(ext)
			i.Extends[k] = ext
			_ = c.hier.AddVertex(ext)
			if err := c.hier.AddEdge(i.Name, ext); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return errors.Wrapf(err, "api contract: %s extends %s", i.Name, ext)
			}
		}
	}
	return nil
}

func internal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// Interface returns the interface with the given internal name.
func (c *Contract) Interface(name string) *Interface {
	return c.byName[internal(name)]
}

// Resolve returns the interface named by an @Implements value.
func (c *Contract) Resolve(implements string) *Interface {
	return c.Interface(c.Prefix + implements)
}

// ClientInterface returns the interface implemented by the client class.
func (c *Contract) ClientInterface() *Interface {
	return c.Interface(c.Client)
}

// Implements reports whether interface a is b or transitively extends it.
// b need not be declared in the contract.
func (c *Contract) Implements(a, b string) bool {
	a, b = internal(a), internal(b)
	if a == b {
		return true
	}
	path, err := graph.ShortestPath(c.hier, a, b)
	return err == nil && len(path) > 0
}

// FindImport returns the non-synthetic method importing name in the given
// role, or nil.
func (i *Interface) FindImport(name string, setter bool) *Method {
	for _, m := range i.Methods {
		if m.Synthetic || m.Import != name || m.Setter != setter {
			continue
		}
		return m
	}
	return nil
}

// FindMethod returns the method called name with the given descriptor,
// or nil. An empty desc matches any descriptor.
func (i *Interface) FindMethod(name, desc string) *Method {
	for _, m := range i.Methods {
		if m.Name == name && (desc == "" || m.Descriptor() == desc) {
			return m
		}
	}
	return nil
}
