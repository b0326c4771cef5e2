package notion

import (
	"fmt"
	"sort"
)

// Field describes one database column.
type Field struct {
	Kind Kind
	// Options seeds the choices of a select column.
	Options []string
	// RelatedDatabase is the target of a relation column.
	RelatedDatabase string
}

// Schema maps column names to their definitions. It is used both to create
// databases and to check property maps before they are sent.
type Schema map[string]Field

// Validate checks a property map for a new row: every property must exist
// with the same kind and the title column must be present.
func (s Schema) Validate(props Properties) error {
	if err := s.ValidatePatch(props); err != nil {
		return err
	}
	for name, f := range s {
		if f.Kind != KindTitle {
			continue
		}
		v, ok := props[name]
		if !ok {
			return fmt.Errorf("notion: title property %q is missing", name)
		}
		if t, _ := v.(Title); t == "" {
			return fmt.Errorf("notion: title property %q is empty", name)
		}
	}
	return nil
}

// ValidatePatch checks a partial property map for an update.
func (s Schema) ValidatePatch(props Properties) error {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := props[name]
		f, ok := s[name]
		if !ok {
			return fmt.Errorf("notion: unknown property %q", name)
		}
		if v == nil {
			return fmt.Errorf("notion: property %q has no value", name)
		}
		if v.Kind() != f.Kind {
			return fmt.Errorf("notion: property %q is %s, got %s", name, f.Kind, v.Kind())
		}
	}
	return nil
}

// definition renders the schema as the "properties" object of a database
// create request.
func (s Schema) definition() map[string]any {
	out := make(map[string]any, len(s))
	for name, f := range s {
		var def any
		switch f.Kind {
		case KindSelect:
			opts := make([]map[string]string, 0, len(f.Options))
			for _, o := range f.Options {
				opts = append(opts, map[string]string{"name": o})
			}
			def = map[string]any{"options": opts}
		case KindNumber:
			def = map[string]string{"format": "number"}
		case KindRelation:
			def = map[string]any{
				"database_id":     f.RelatedDatabase,
				"single_property": map[string]any{},
			}
		default:
			def = map[string]any{}
		}
		out[name] = map[Kind]any{f.Kind: def}
	}
	return out
}
