package pattern

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/freshtrack/expiry-cli/internal/model"
)

// patternFile is the on-disk shape of a custom pattern set.
type patternFile struct {
	Patterns []patternEntry `yaml:"patterns"`
}

type patternEntry struct {
	ID             string   `yaml:"id"`
	Role           string   `yaml:"role"`
	Expr           string   `yaml:"expr"`
	FieldOrder     []string `yaml:"field_order"`
	BaseConfidence float64  `yaml:"base_confidence"`
}

var fieldNames = map[string]Field{
	"year":  FieldYear,
	"month": FieldMonth,
	"day":   FieldDay,
	"count": FieldCount,
}

var roleNames = map[string]model.Role{
	string(model.RoleProductionDate):  model.RoleProductionDate,
	string(model.RoleExpiryDate):      model.RoleExpiryDate,
	string(model.RoleShelfLifeMonths): model.RoleShelfLifeMonths,
	string(model.RoleShelfLifeDays):   model.RoleShelfLifeDays,
}

// Load builds a library from the builtin patterns plus the custom patterns
// in the given YAML file. Custom patterns are appended after the builtins,
// so they rank below them on exact confidence ties.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pattern: read %s", path)
	}

	var pf patternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, eris.Wrapf(err, "pattern: parse %s", path)
	}

	merged := make([]Pattern, 0, len(builtinPatterns)+len(pf.Patterns))
	merged = append(merged, builtinPatterns...)
	for _, e := range pf.Patterns {
		role, ok := roleNames[e.Role]
		if !ok {
			return nil, eris.Errorf("pattern %s: unknown role %q", e.ID, e.Role)
		}
		fields := make([]Field, 0, len(e.FieldOrder))
		for _, name := range e.FieldOrder {
			f, ok := fieldNames[name]
			if !ok {
				return nil, eris.Errorf("pattern %s: unknown field %q", e.ID, name)
			}
			fields = append(fields, f)
		}
		merged = append(merged, Pattern{
			ID:             e.ID,
			Role:           role,
			Expr:           e.Expr,
			FieldOrder:     fields,
			BaseConfidence: e.BaseConfidence,
		})
	}

	return NewLibrary(merged)
}
