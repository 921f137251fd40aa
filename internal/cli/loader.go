package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/conventions/internal/compiler"
	"github.com/roach88/conventions/internal/ir"
)

// Error code constants shared by all commands. Build failures use the
// engine's codes (VALIDATION_FAILED, INVALID_SPEC, ...) instead.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load or evaluation failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeCompileError = "E006" // CUE value does not describe a model
	ErrCodeBadFlag      = "E008" // Flag value rejected
)

// LoadResult is a compiled model definition.
type LoadResult struct {
	Spec      *ir.ModelSpec
	FileCount int
}

// LoadError is a specs directory that could not be turned into a
// definition at all.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSpecs compiles the CUE package in dir.
//
// Problems with the directory itself come back as a *LoadError. CUE and
// schema errors come back as validation errors with their source line, so
// validate and build report them like static checks.
func LoadSpecs(dir string) (*LoadResult, []compiler.ValidationError, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}
	}
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := compiler.FindCUEFiles(dir)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	spec, err := compiler.LoadDir(dir)
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			return nil, []compiler.ValidationError{compileErrorToValidation(compileErr)}, nil
		}
		return nil, nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return &LoadResult{Spec: spec, FileCount: len(files)}, nil, nil
}

func compileErrorToValidation(err *compiler.CompileError) compiler.ValidationError {
	code := ErrCodeCompileError
	if err.Field == "cue" {
		code = ErrCodeLoadFailed
	}
	line := 0
	if err.Pos.IsValid() {
		line = err.Pos.Line()
	}
	return compiler.ValidationError{
		Field:   err.Field,
		Message: err.Message,
		Code:    code,
		Line:    line,
	}
}

// loadErrorCode returns the code of a LoadSpecs error.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// loadErrorMessage returns the message of a LoadSpecs error without its code.
func loadErrorMessage(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Message
	}
	return err.Error()
}
