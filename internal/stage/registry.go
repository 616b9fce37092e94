package stage

import (
	"fmt"
	"strings"
)

// Canonical stage names, in pipeline order.
const (
	NameHarvester = "harvester"
	NameCrafter   = "crafter"
	NameStyler    = "styler"
	NameVoicer    = "voicer"
	NamePublisher = "publisher"
)

// order maps canonical names to their ledger numbers.
var order = map[string]int{
	NameHarvester: 1,
	NameCrafter:   2,
	NameStyler:    3,
	NameVoicer:    4,
	NamePublisher: 5,
}

// aliases maps older workflow spellings to canonical names.
var aliases = map[string]string{
	"crawler": NameHarvester,
	"writer":  NameCrafter,
	"painter": NameStyler,
	"speaker": NameVoicer,
	"poster":  NamePublisher,
}

// Normalize resolves a workflow token to a canonical stage name.
func Normalize(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[n]; ok {
		n = alias
	}
	if _, ok := order[n]; !ok {
		return "", fmt.Errorf("unknown stage %q", name)
	}
	return n, nil
}

// Number returns the ledger number for a canonical stage name.
func Number(name string) int {
	return order[name]
}

// ParseWorkflow splits a comma-separated workflow spec into canonical stage
// names, rejecting unknown tokens and duplicates.
func ParseWorkflow(spec string) ([]string, error) {
	var names []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Split(spec, ",") {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		name, err := Normalize(tok)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("stage %q listed twice", name)
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("workflow spec %q names no stages", spec)
	}
	return names, nil
}
