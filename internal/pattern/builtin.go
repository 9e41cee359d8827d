package pattern

import "github.com/freshtrack/expiry-cli/internal/model"

// builtinPatterns is the default library, most specific first. Labelled
// prefixes outrank bare numeric dates, bare dates outrank partial
// year-month values and single-field shelf-life counts. Order also decides
// exact confidence ties, so keep new entries below their generalizations.
var builtinPatterns = []Pattern{
	{
		ID:             "prod_labeled",
		Role:           model.RoleProductionDate,
		Expr:           `生产日期[：:]\s*(\d{4})[-./年](\d{1,2})[-./月](\d{1,2})日?`,
		FieldOrder:     []Field{FieldYear, FieldMonth, FieldDay},
		BaseConfidence: 0.95,
	},
	{
		ID:             "prod_made",
		Role:           model.RoleProductionDate,
		Expr:           `(?:制造日期|制造|生产)[：:]\s*(\d{4})[-./年](\d{1,2})[-./月](\d{1,2})日?`,
		FieldOrder:     []Field{FieldYear, FieldMonth, FieldDay},
		BaseConfidence: 0.95,
	},
	{
		ID:             "expiry_until",
		Role:           model.RoleExpiryDate,
		Expr:           `(?:保质期至|有效期至|此日期前食用)[：:]?\s*(\d{4})[-./年](\d{1,2})[-./月](\d{1,2})日?`,
		FieldOrder:     []Field{FieldYear, FieldMonth, FieldDay},
		BaseConfidence: 0.95,
	},
	{
		ID:             "date_cn",
		Role:           model.RoleProductionDate,
		Expr:           `(\d{4})年(\d{1,2})月(\d{1,2})日`,
		FieldOrder:     []Field{FieldYear, FieldMonth, FieldDay},
		BaseConfidence: 0.85,
	},
	{
		ID:             "date_ymd",
		Role:           model.RoleProductionDate,
		Expr:           `(\d{4})[-./](\d{1,2})[-./](\d{1,2})`,
		FieldOrder:     []Field{FieldYear, FieldMonth, FieldDay},
		BaseConfidence: 0.8,
	},
	{
		ID:             "date_dmy",
		Role:           model.RoleProductionDate,
		Expr:           `\b(\d{1,2})[-./](\d{1,2})[-./](20\d{2})\b`,
		FieldOrder:     []Field{FieldDay, FieldMonth, FieldYear},
		BaseConfidence: 0.75,
	},
	{
		// Same shape as date_dmy; calendar validation rejects whichever
		// reading has an impossible month, and the earlier day-first entry
		// wins when both readings are valid.
		ID:             "date_mdy",
		Role:           model.RoleProductionDate,
		Expr:           `\b(\d{1,2})[-./](\d{1,2})[-./](20\d{2})\b`,
		FieldOrder:     []Field{FieldMonth, FieldDay, FieldYear},
		BaseConfidence: 0.72,
	},
	{
		ID:             "date_cn_ym",
		Role:           model.RoleProductionDate,
		Expr:           `(\d{4})年(\d{1,2})月`,
		FieldOrder:     []Field{FieldYear, FieldMonth},
		BaseConfidence: 0.6,
	},
	{
		ID:             "date_ym",
		Role:           model.RoleProductionDate,
		Expr:           `\b(\d{4})[-./](\d{1,2})\b`,
		FieldOrder:     []Field{FieldYear, FieldMonth},
		BaseConfidence: 0.6,
	},
	{
		ID:             "shelf_months",
		Role:           model.RoleShelfLifeMonths,
		Expr:           `保质期[：:]?\s*(\d{1,2})\s*个?月`,
		FieldOrder:     []Field{FieldCount},
		BaseConfidence: 0.7,
	},
	{
		ID:             "shelf_days",
		Role:           model.RoleShelfLifeDays,
		Expr:           `保质期[：:]?\s*(\d{1,3})\s*天`,
		FieldOrder:     []Field{FieldCount},
		BaseConfidence: 0.7,
	},
}

var builtinLib = func() *Library {
	l, err := NewLibrary(builtinPatterns)
	if err != nil {
		panic(err)
	}
	return l
}()

// Builtin returns the default pattern library.
func Builtin() *Library {
	return builtinLib
}
