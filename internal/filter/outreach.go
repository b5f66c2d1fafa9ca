package filter

import (
	"context"
	"strings"

	"regpulse/internal/schema"
)

var (
	faxColumns    = []string{"faxnumber_formatted", "fax", "fax_number"}
	phoneColumns  = []string{"phonenumber_formatted", "phone", "phone_number", "telephone", "telefoon"}
	postalColumns = []string{"postaladdress", "postal_address", "postadres", "post_adres", "postbus", "specialpostadress"}
)

// OutreachSelection carries a tri-state presence constraint per traditional
// contact channel. nil means unconstrained; selecting both TRUE and FALSE
// for one field also decodes to nil.
type OutreachSelection struct {
	Fax   *bool
	Phone *bool
	Post  *bool
}

func (s OutreachSelection) Active() bool {
	return s.Fax != nil || s.Phone != nil || s.Post != nil
}

// OutreachFilter constrains fax, phone and postal-address presence, ANDing
// whatever sub-constraints are set.
//
// Policy: an active sub-constraint whose column is missing fails the whole
// filter closed.
type OutreachFilter struct{}

// NewOutreachFilter filters on traditional contact channel presence.
func NewOutreachFilter() *OutreachFilter { return &OutreachFilter{} }

func (f *OutreachFilter) Name() string  { return "traditional_outreach" }
func (f *OutreachFilter) Label() string { return "Traditional outreach" }
func (f *OutreachFilter) Kind() Kind    { return KindMultiselect }

func (f *OutreachFilter) DistinctValues(context.Context) ([]string, error) {
	return []string{
		"fax=TRUE", "fax=FALSE",
		"phone=TRUE", "phone=FALSE",
		"post=TRUE", "post=FALSE",
	}, nil
}

func (f *OutreachFilter) Decode(raw any) (Selection, error) {
	values, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	want := map[string][2]bool{} // field -> {wantTrue, wantFalse}
	for _, v := range values {
		field, state, ok := strings.Cut(strings.ToLower(strings.TrimSpace(v)), "=")
		if !ok {
			continue
		}
		switch field {
		case "fax", "phone", "post":
			w := want[field]
			if state == "true" {
				w[0] = true
			} else if state == "false" {
				w[1] = true
			}
			want[field] = w
		}
	}
	fax := want["fax"]
	phone := want["phone"]
	post := want["post"]
	return OutreachSelection{
		Fax:   triState(fax[0], fax[1]),
		Phone: triState(phone[0], phone[1]),
		Post:  triState(post[0], post[1]),
	}, nil
}

func (f *OutreachFilter) Apply(rows Stream, header schema.Header, sel Selection) Stream {
	outreach, ok := sel.(OutreachSelection)
	if !ok || !outreach.Active() {
		return passthrough(rows)
	}

	type constraint struct {
		idx  int
		want bool
	}
	var constraints []constraint
	for _, c := range []struct {
		want    *bool
		columns []string
	}{
		{outreach.Fax, faxColumns},
		{outreach.Phone, phoneColumns},
		{outreach.Post, postalColumns},
	} {
		if c.want == nil {
			continue
		}
		idx, found := header.Index(c.columns...)
		if !found {
			return nothing
		}
		constraints = append(constraints, constraint{idx: idx, want: *c.want})
	}

	return func(yield func(schema.Row) bool) {
		for row := range rows {
			match := true
			for _, c := range constraints {
				if HasValue(row.RawCell(c.idx)) != c.want {
					match = false
					break
				}
			}
			if match && !yield(row) {
				return
			}
		}
	}
}
