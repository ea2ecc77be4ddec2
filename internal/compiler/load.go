package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/organizer/internal/item"
)

// LoadFile reads and compiles the document at path, choosing the format by
// extension (.cue, .yaml, .yml), and runs Validate on the result.
func LoadFile(path, managerURI string) ([]item.Item, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var items []item.Item
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		items, err = CompileCUE(src, path, managerURI)
	case ".yaml", ".yml":
		items, err = CompileYAML(src, managerURI)
	default:
		return nil, fmt.Errorf("unsupported document extension %q (want .cue, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, err
	}

	if errs := Validate(items); len(errs) > 0 {
		return nil, &DocumentError{Path: path, Errors: errs}
	}
	return items, nil
}

// DocumentError collects the validation errors of one document.
type DocumentError struct {
	Path   string
	Errors []ValidationError
}

func (e *DocumentError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%s: %d validation error(s):\n  %s", e.Path, len(e.Errors), strings.Join(msgs, "\n  "))
}
