package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/organizer/internal/compiler"
	"github.com/roach88/organizer/internal/item"
)

// LoadMode controls how errors are handled during document loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first document that fails.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll loads every document and collects all errors.
	LoadModeCollectAll
)

// LoadResult contains the items compiled from one document or a directory of
// documents.
type LoadResult struct {
	Items []item.Item
	Files []string // Documents that were read, in load order
}

// LoadError represents an error that occurred during document loading.
type LoadError struct {
	Code    string
	Message string
	Path    string    // Document path if known
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands. Document
// validation failures use the compiler's E1xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No documents found
	ErrCodeCompile     = "E004" // Document does not compile
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeConfig      = "E006" // Configuration or database error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeUsage       = "E008" // Invalid argument or flag value
)

// LoadDocuments compiles the document at path, or every .cue, .yaml and .yml
// document below path if it is a directory. Item ids belong to managerURI.
func LoadDocuments(path, managerURI string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}}
	}

	files := []string{path}
	if info.IsDir() {
		files, err = FindDocuments(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no documents found in %s", path)}}
		}
	}

	result := &LoadResult{}
	var errs []error
	for _, file := range files {
		items, err := compiler.LoadFile(file, managerURI)
		if err != nil {
			errs = append(errs, convertDocumentError(file, err)...)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Items = append(result.Items, items...)
		result.Files = append(result.Files, file)
	}
	return result, errs
}

// FindDocuments walks the directory and returns all document paths.
func FindDocuments(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".cue", ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertDocumentError converts a compiler error to LoadErrors with position
// info. A validation failure yields one LoadError per finding.
func convertDocumentError(path string, err error) []error {
	var docErr *compiler.DocumentError
	if errors.As(err, &docErr) {
		out := make([]error, len(docErr.Errors))
		for i, ve := range docErr.Errors {
			out[i] = &LoadError{Code: ve.Code, Message: ve.Field + ": " + ve.Message, Path: path}
		}
		return out
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return []error{&LoadError{
			Code:    ErrCodeCompile,
			Message: compileErr.Field + ": " + compileErr.Message,
			Path:    path,
			Pos:     compileErr.Pos,
		}}
	}
	return []error{&LoadError{Code: ErrCodeGeneric, Message: err.Error(), Path: path}}
}

// loadErrorCode extracts the code and message from an error.
func loadErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
