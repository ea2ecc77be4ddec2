package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/request"
)

// Scenario defines a request scenario: seed documents, a flow of requests
// with expected outcomes, and assertions over the notification trace and the
// final store.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Documents lists item documents seeded into the store before the flow.
	// Paths are relative to the scenario file.
	Documents []string `yaml:"documents,omitempty"`

	// BatchSize and DefaultMaxOccurrences configure the engine. Zero keeps
	// the engine default.
	BatchSize             int `yaml:"batch_size,omitempty"`
	DefaultMaxOccurrences int `yaml:"default_max_occurrences,omitempty"`

	// Flow contains the requests, executed in order.
	Flow []RequestStep `yaml:"flow"`

	// Assertions validate the trace and the final store.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// RequestStep is one request of the flow. Which fields apply depends on the
// request kind.
type RequestStep struct {
	// Request is the request kind, e.g. "item_occurrence_fetch".
	Request string `yaml:"request"`

	// Parent is the key of the parent item (item_occurrence_fetch).
	Parent string `yaml:"parent,omitempty"`

	// Start and End bound the window, RFC 3339.
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`

	// Max is MaxOccurrences (item_occurrence_fetch) or MaxCount (item_fetch).
	Max *int `yaml:"max,omitempty"`

	// Types, Label and Sort build the filter and sort orders of fetches.
	Types []string `yaml:"types,omitempty"`
	Label string   `yaml:"label,omitempty"`
	Sort  []string `yaml:"sort,omitempty"`

	// Fields limits details to these keys (fetch hint).
	Fields []string `yaml:"fields,omitempty"`

	// IDs are the keys to remove (item_remove).
	IDs []string `yaml:"ids,omitempty"`

	// Save is the document whose items are saved (item_save), relative to
	// the scenario file. Mask is the save mask.
	Save string   `yaml:"save,omitempty"`
	Mask []string `yaml:"mask,omitempty"`

	// Expect specifies the expected outcome. If nil, nothing is checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// State is the expected terminal state, e.g. "finished".
	State string `yaml:"state"`

	// Error is the expected error code, e.g. "invalid_argument".
	// Empty means not checked.
	Error string `yaml:"error,omitempty"`

	// Count is the expected number of results.
	Count *int `yaml:"count,omitempty"`

	// Starts and Labels are the expected result starts (RFC 3339, UTC) and
	// labels, in order.
	Starts []string `yaml:"starts,omitempty"`
	Labels []string `yaml:"labels,omitempty"`
}

// Assertion validates the trace or the final store.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_count": Step received exactly Count notifications of Event
	// - "stored_count": the store holds exactly Count items
	// - "stored_item": the item with Key exists and matches Expect
	Type string `yaml:"type"`

	Step  int    `yaml:"step,omitempty"`
	Event string `yaml:"event,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Key is the local key of a stored item (stored_item).
	Key string `yaml:"key,omitempty"`

	// Expect contains expected summary fields (stored_item).
	// Subset match - only specified fields are validated.
	Expect map[string]string `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount  = "trace_count"
	AssertStoredCount = "stored_count"
	AssertStoredItem  = "stored_item"
)

var requestKinds = map[string]request.Kind{
	request.ItemOccurrenceFetch.String(): request.ItemOccurrenceFetch,
	request.ItemFetchForExport.String():  request.ItemFetchForExport,
	request.ItemFetch.String():           request.ItemFetch,
	request.ItemSave.String():            request.ItemSave,
	request.ItemRemove.String():          request.ItemRemove,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Document paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, doc := range scenario.Documents {
		scenario.Documents[i] = resolve(base, doc)
	}
	for i := range scenario.Flow {
		if scenario.Flow[i].Save != "" {
			scenario.Flow[i].Save = resolve(base, scenario.Flow[i].Save)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if s.BatchSize < 0 || s.DefaultMaxOccurrences < 0 {
		return fmt.Errorf("batch_size and default_max_occurrences must not be negative")
	}

	for _, doc := range s.Documents {
		if _, err := os.Stat(doc); os.IsNotExist(err) {
			return fmt.Errorf("document not found: %s", doc)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, len(s.Flow)); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step *RequestStep) error {
	kind, ok := requestKinds[step.Request]
	if !ok {
		return fmt.Errorf("flow[%d]: unknown request %q", i, step.Request)
	}
	switch kind {
	case request.ItemOccurrenceFetch:
		if step.Parent == "" {
			return fmt.Errorf("flow[%d]: parent is required for %s", i, step.Request)
		}
	case request.ItemSave:
		if step.Save == "" {
			return fmt.Errorf("flow[%d]: save is required for %s", i, step.Request)
		}
	case request.ItemRemove:
		if len(step.IDs) == 0 {
			return fmt.Errorf("flow[%d]: ids are required for %s", i, step.Request)
		}
	}
	for _, s := range step.Sort {
		if _, err := filter.ParseSortOrder(s); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for _, typ := range step.Types {
		if !item.Type(typ).Valid() {
			return fmt.Errorf("flow[%d]: unknown item type %q", i, typ)
		}
	}
	if step.Expect != nil && step.Expect.State == "" {
		return fmt.Errorf("flow[%d].expect: state is required", i)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceCount:
		if a.Event != EventStateChanged && a.Event != EventResultsAvailable {
			return fmt.Errorf("assertions[%d]: unknown event %q for trace_count", index, a.Event)
		}
		if a.Step < 0 || a.Step >= steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, a.Step)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertStoredCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for stored_count", index)
		}
	case AssertStoredItem:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for stored_item", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for stored_item", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
