package xlinspect

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file is not a valid xlsx package.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrUnsupportedFormat indicates the operation cannot handle the detected format.
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

// ErrSameOutput indicates a cleanup would overwrite its own input.
var ErrSameOutput = errors.New("output path must differ from input path")

// AnalysisError represents an error while analyzing one component of a sheet.
type AnalysisError struct {
	SheetName string
	Component string // "dimension", "cells", "merges", "visibility", "comments", "tables", "drawing"
	Err       error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis error in sheet %q (%s): %v", e.SheetName, e.Component, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError creates a new AnalysisError.
func NewAnalysisError(sheetName, component string, err error) *AnalysisError {
	return &AnalysisError{
		SheetName: sheetName,
		Component: component,
		Err:       err,
	}
}

// PartError reports a failure to read or rewrite one part of a package.
type PartError struct {
	Part string
	Op   string
	Err  error
}

func (e *PartError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Part, e.Err)
}

func (e *PartError) Unwrap() error {
	return e.Err
}
