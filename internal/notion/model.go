package notion

import (
	"encoding/json"
	"math"
	"strings"

	"focuslog/internal/focus"
)

// Property names of the focus database.
type PropertyNames struct {
	Day     string
	Subject string
	Focus   string
}

func DefaultPropertyNames() PropertyNames {
	return PropertyNames{Day: "day", Subject: "subject", Focus: focus.FocusField}
}

type queryReq struct {
	Filter      map[string]any `json:"filter,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
}

type queryResp struct {
	Results    []page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// page keeps every property raw so one malformed property cannot fail the
// whole response.
type page struct {
	ID         string                     `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type dateProp struct {
	Date *struct {
		Start string `json:"start"`
	} `json:"date"`
}

type selectProp struct {
	Select *struct {
		Name string `json:"name"`
	} `json:"select"`
	Title    []richText `json:"title"`
	RichText []richText `json:"rich_text"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type numberProp struct {
	Number json.RawMessage `json:"number"`
}

type databaseResp struct {
	Properties map[string]json.RawMessage `json:"properties"`
}

type selectSchema struct {
	Type   string `json:"type"`
	Select *struct {
		Options []struct {
			Name string `json:"name"`
		} `json:"options"`
	} `json:"select"`
}

func (p page) toRow(names PropertyNames) focus.FocusRow {
	return focus.FocusRow{
		ID:      p.ID,
		Day:     p.dayValue(names.Day),
		Subject: p.subjectValue(names.Subject),
		Focus:   p.numberValue(names.Focus),
	}
}

func (p page) dayValue(name string) string {
	var prop dateProp
	if err := json.Unmarshal(p.Properties[name], &prop); err != nil || prop.Date == nil {
		return ""
	}
	return prop.Date.Start
}

func (p page) subjectValue(name string) string {
	var prop selectProp
	if err := json.Unmarshal(p.Properties[name], &prop); err != nil {
		return ""
	}
	if prop.Select != nil {
		return prop.Select.Name
	}
	for _, texts := range [][]richText{prop.Title, prop.RichText} {
		if len(texts) == 0 {
			continue
		}
		var b strings.Builder
		for _, t := range texts {
			b.WriteString(t.PlainText)
		}
		return b.String()
	}
	return ""
}

func (p page) numberValue(name string) *float64 {
	var prop numberProp
	if err := json.Unmarshal(p.Properties[name], &prop); err != nil {
		return nil
	}
	if raw := strings.TrimSpace(string(prop.Number)); raw == "" || raw == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(prop.Number, &n); err != nil {
		return nil
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

func buildFilter(f focus.RowFilter, names PropertyNames) map[string]any {
	and := make([]map[string]any, 0, 3)
	if f.OnOrAfter != "" {
		and = append(and, map[string]any{"property": names.Day, "date": map[string]any{"on_or_after": f.OnOrAfter}})
	}
	if f.Before != "" {
		and = append(and, map[string]any{"property": names.Day, "date": map[string]any{"before": f.Before}})
	}
	if s := strings.TrimSpace(f.Subject); s != "" {
		and = append(and, map[string]any{"property": names.Subject, "select": map[string]any{"equals": s}})
	}
	if len(and) == 0 {
		return nil
	}
	return map[string]any{"and": and}
}

// propertyValues converts plain field values into Notion property payloads.
// Numbers become number properties, strings become select properties.
func propertyValues(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		switch x := v.(type) {
		case nil:
			out[name] = map[string]any{"number": nil}
		case int, int32, int64, float32, float64:
			out[name] = map[string]any{"number": x}
		case string:
			out[name] = map[string]any{"select": map[string]any{"name": x}}
		default:
			return nil, &unsupportedFieldError{name: name, value: v}
		}
	}
	return out, nil
}
