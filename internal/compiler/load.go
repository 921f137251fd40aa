package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/conventions/internal/ir"
)

// LoadDir compiles every .cue file of the package in dir into one
// ModelSpec. Files unify, so an entity may be spread across several.
func LoadDir(dir string) (*ir.ModelSpec, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("specs directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}
	return loadInstance([]string{"."}, &load.Config{Dir: dir})
}

// LoadFiles compiles the given .cue files, which must belong to the same
// package, into one ModelSpec.
func LoadFiles(paths ...string) (*ir.ModelSpec, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no CUE files given")
	}
	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(a); err != nil {
			return nil, fmt.Errorf("spec file: %w", err)
		}
		abs[i] = a
	}
	return loadInstance(abs, &load.Config{Dir: filepath.Dir(abs[0])})
}

// CompileString compiles CUE source held in memory. filename is used in
// error positions only.
func CompileString(src, filename string) (*ir.ModelSpec, error) {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	return CompileModel(v)
}

func loadInstance(args []string, cfg *load.Config) (*ir.ModelSpec, error) {
	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileModel(v)
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
