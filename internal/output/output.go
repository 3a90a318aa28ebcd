// Package output loads class groups from disk and writes injection
// results back.
package output

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apex/log"

	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/inject"
	"deobinject/internal/jvmfmt"
)

// LoadGroup reads every .class file below path, which is either a
// directory or a jar.
func LoadGroup(path string) (*classfile.ClassGroup, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if !fi.IsDir() {
		return LoadJar(path)
	}
	g := classfile.NewClassGroup()
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".class") {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return addClass(g, p, data)
	})
	if err != nil {
		return nil, fmt.Errorf("output: load %s: %w", path, err)
	}
	log.WithFields(log.Fields{"path": path, "classes": g.Len()}).Debug("loaded class group")
	return g, nil
}

// LoadJar reads every .class entry of a jar.
func LoadJar(path string) (*classfile.ClassGroup, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("output: open %s: %w", path, err)
	}
	defer zr.Close()

	g := classfile.NewClassGroup()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("output: %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("output: %s: %w", f.Name, err)
		}
		if err := addClass(g, f.Name, data); err != nil {
			return nil, fmt.Errorf("output: load %s: %w", path, err)
		}
	}
	log.WithFields(log.Fields{"path": path, "classes": g.Len()}).Debug("loaded class group")
	return g, nil
}

func addClass(g *classfile.ClassGroup, name string, data []byte) error {
	cf, err := classfile.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return g.Add(cf)
}

// SaveGroup writes every class of g to dir/<internal name>.class.
// Encoding diagnostics are added to diags.
func SaveGroup(dir string, g *classfile.ClassGroup, diags *jvmfmt.Diags) error {
	for _, cf := range g.Classes() {
		data, err := cf.Encode(diags)
		if err != nil {
			return fmt.Errorf("output: encode %s: %w", cf.Name, err)
		}
		path := filepath.Join(dir, filepath.FromSlash(cf.Name)+".class")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("output: mkdir %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("output: write %s: %w", path, err)
		}
	}
	return nil
}

// WriteReportJSON writes the injection report to report.json.
func WriteReportJSON(dir string, r *inject.Report) error {
	return writeJSON(filepath.Join(dir, "report.json"), r)
}

// ClassEntry summarizes one class for classes.json.
type ClassEntry struct {
	Name       string   `json:"name"`
	Super      string   `json:"super,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
	Fields     int      `json:"fields"`
	Methods    int      `json:"methods"`
}

// WriteClassesJSON writes a summary of every class to classes.json, sorted
// by name.
func WriteClassesJSON(dir string, g *classfile.ClassGroup) error {
	entries := make([]ClassEntry, 0, g.Len())
	for _, cf := range g.Classes() {
		entries = append(entries, ClassEntry{
			Name:       cf.Name,
			Super:      cf.SuperName,
			Interfaces: cf.Interfaces(),
			Fields:     len(cf.Fields),
			Methods:    len(cf.Methods),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return writeJSON(filepath.Join(dir, "classes.json"), entries)
}

// WriteListing writes the instruction listing of m to
// asm/<class>/<method><desc>.txt.
func WriteListing(dir string, m *classfile.Method, annotators ...bytecode.Annotator) error {
	if m.Code == nil {
		return nil
	}
	path := filepath.Join(dir, "asm", filepath.FromSlash(m.Owner.Name), fileSafe(m.Name+m.Desc)+".txt")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir asm: %w", err)
	}
	text := bytecode.Listing(m.Code.Instructions, annotators...)
	return os.WriteFile(path, []byte(text), 0644)
}

// WriteDOT writes a rendered graph to dot/<name>.dot.
func WriteDOT(dir, name, dot string) error {
	path := filepath.Join(dir, "dot", fileSafe(name)+".dot")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir dot: %w", err)
	}
	return os.WriteFile(path, []byte(dot), 0644)
}

// fileSafe replaces characters descriptors use that file systems dislike.
func fileSafe(s string) string {
	return strings.NewReplacer("/", "_", ";", "", "<", "_", ">", "_", "[", "A").Replace(s)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}
