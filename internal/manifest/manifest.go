// Package manifest loads CUE material manifests. A manifest directory
// holds .cue files sharing one package; each names the materials a
// database should carry and the .svuv dataset file behind each region:
//
//	package materials
//
//	material: water: {
//		compressed:  "water_compressed.svuv"
//		superheated: "water_superheated.svuv"
//		saturated:   "water_saturated.svuv"
//		notes:       "Cengel & Boles, 8th ed."
//	}
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Material is one manifest entry. The three region paths are relative to
// the manifest directory.
type Material struct {
	Name        string
	Compressed  string
	Superheated string
	Saturated   string
	Notes       string
}

// DatasetPaths returns the region-name to path map for iteration.
func (m Material) DatasetPaths() map[string]string {
	return map[string]string{
		"compressed":  m.Compressed,
		"superheated": m.Superheated,
		"saturated":   m.Saturated,
	}
}

// Manifest is a compiled material manifest.
type Manifest struct {
	Dir       string
	Materials []Material
}

// Resolve joins a manifest-relative dataset path with the manifest
// directory.
func (m *Manifest) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Dir, path)
}

// CompileError reports an invalid manifest field with its CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load compiles every .cue file in dir into a single manifest.
func Load(dir string) (*Manifest, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("manifest directory not found: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("access manifest directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}

	return Compile(value, dir)
}

// Compile extracts the material entries from an already-built CUE value.
func Compile(value cue.Value, dir string) (*Manifest, error) {
	materialsVal := value.LookupPath(cue.ParsePath("material"))
	if !materialsVal.Exists() {
		return nil, &CompileError{Field: "material", Message: "no material entries found", Pos: value.Pos()}
	}

	iter, err := materialsVal.Fields()
	if err != nil {
		return nil, &CompileError{Field: "material", Message: err.Error(), Pos: materialsVal.Pos()}
	}

	m := &Manifest{Dir: dir}
	for iter.Next() {
		mat, err := compileMaterial(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		m.Materials = append(m.Materials, *mat)
	}
	if len(m.Materials) == 0 {
		return nil, &CompileError{Field: "material", Message: "no material entries found", Pos: materialsVal.Pos()}
	}

	sort.Slice(m.Materials, func(i, j int) bool {
		return m.Materials[i].Name < m.Materials[j].Name
	})
	return m, nil
}

func compileMaterial(name string, v cue.Value) (*Material, error) {
	if err := v.Err(); err != nil {
		return nil, &CompileError{Field: "material." + name, Message: err.Error(), Pos: v.Pos()}
	}

	mat := &Material{Name: name}
	fields := []struct {
		name string
		dst  *string
	}{
		{"compressed", &mat.Compressed},
		{"superheated", &mat.Superheated},
		{"saturated", &mat.Saturated},
	}
	for _, f := range fields {
		fv := v.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			return nil, &CompileError{
				Field:   "material." + name + "." + f.name,
				Message: "missing dataset path",
				Pos:     v.Pos(),
			}
		}
		s, err := fv.String()
		if err != nil {
			return nil, &CompileError{
				Field:   "material." + name + "." + f.name,
				Message: "dataset path must be a string",
				Pos:     fv.Pos(),
			}
		}
		if s == "" {
			return nil, &CompileError{
				Field:   "material." + name + "." + f.name,
				Message: "dataset path must not be empty",
				Pos:     fv.Pos(),
			}
		}
		*f.dst = s
	}

	notesVal := v.LookupPath(cue.ParsePath("notes"))
	if notesVal.Exists() {
		s, err := notesVal.String()
		if err != nil {
			return nil, &CompileError{
				Field:   "material." + name + ".notes",
				Message: "notes must be a string",
				Pos:     notesVal.Pos(),
			}
		}
		mat.Notes = s
	}

	return mat, nil
}
