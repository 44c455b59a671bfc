package onboarding

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/pranacare/onboarding/internal/platform/view"
)

// OptionView is one entry of a select input.
type OptionView struct {
	Value    string
	Selected bool
}

// FieldView is a form input ready for the template.
type FieldView struct {
	Name         string
	Label        string
	Type         string
	Placeholder  string
	Autocomplete string
	Value        string
	Checked      bool
	Error        string
	Options      []OptionView
}

// SectionView is a titled group of inputs.
type SectionView struct {
	Title  string
	Fields []FieldView
}

type boundField struct {
	spec  view.FieldSpec
	field Field
}

type boundSection struct {
	title  string
	fields []boundField
}

// presenter binds the field catalog to Draft fields.
type presenter struct {
	sections []boundSection
}

// newPresenter checks that every catalog entry names a Draft field with a
// matching input kind, and that select options are accepted values.
func newPresenter(catalog view.Catalog) (*presenter, error) {
	p := &presenter{}
	for _, s := range catalog.Sections {
		bs := boundSection{title: s.Title}
		for _, spec := range s.Fields {
			f, err := ParseField(spec.Name)
			if err != nil {
				return nil, fmt.Errorf("bind catalog: %w", err)
			}
			if f.IsBool() != (spec.Type == "checkbox") {
				return nil, fmt.Errorf("bind catalog: %w: %s rendered as %s", ErrFieldKind, f, spec.Type)
			}
			if f == FieldSex {
				for _, o := range spec.Options {
					if _, err := ParseSex(o); err != nil {
						return nil, fmt.Errorf("bind catalog: %w", err)
					}
				}
			}
			bs.fields = append(bs.fields, boundField{spec: spec, field: f})
		}
		p.sections = append(p.sections, bs)
	}
	return p, nil
}

// Sections renders the draft and its errors in catalog order.
func (p *presenter) Sections(d Draft, errs ErrorMap) []SectionView {
	out := make([]SectionView, 0, len(p.sections))
	for _, s := range p.sections {
		sv := SectionView{Title: s.title, Fields: make([]FieldView, 0, len(s.fields))}
		for _, bf := range s.fields {
			fv := FieldView{
				Name:         bf.spec.Name,
				Label:        bf.spec.Label,
				Type:         bf.spec.Type,
				Placeholder:  bf.spec.Placeholder,
				Autocomplete: bf.spec.Autocomplete,
				Value:        d.Value(bf.field),
				Checked:      d.Checked(bf.field),
				Error:        errs[bf.field],
			}
			for _, o := range bf.spec.Options {
				fv.Options = append(fv.Options, OptionView{Value: o, Selected: o == fv.Value})
			}
			sv.Fields = append(sv.Fields, fv)
		}
		out = append(out, sv)
	}
	return out
}

// Updates turns a full form post into field updates. Unchecked boxes are not
// posted by browsers, so an absent checkbox means false.
func (p *presenter) Updates(values url.Values) []FieldUpdate {
	var out []FieldUpdate
	for _, s := range p.sections {
		for _, bf := range s.fields {
			if bf.field.IsBool() {
				out = append(out, SetChecked(bf.field, parseChecked(values.Get(bf.spec.Name))))
				continue
			}
			out = append(out, SetText(bf.field, values.Get(bf.spec.Name)))
		}
	}
	return out
}

// parseChecked accepts the values browsers and scripts send for a ticked box.
func parseChecked(v string) bool {
	if v == "on" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
