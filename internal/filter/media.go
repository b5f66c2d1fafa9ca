package filter

import (
	"context"
	"strings"

	"regpulse/internal/schema"
)

// MediaChannels lists the selectable media channels in display order.
var MediaChannels = []string{
	"email", "facebook", "instagram", "linkedin",
	"pinterest", "twitter", "youtube", "internetaddress",
}

// mediaColumns maps each channel to its column alias candidates.
var mediaColumns = map[string][]string{
	"email":           {"email", "e-mail", "emails"},
	"facebook":        {"facebook", "fb"},
	"instagram":       {"instagram", "ig"},
	"linkedin":        {"linkedin", "linked_in"},
	"pinterest":       {"pinterest"},
	"twitter":         {"twitter", "x"},
	"youtube":         {"youtube", "you_tube"},
	"internetaddress": {"internetaddress", "website", "url", "site", "homepage", "web", "internet_adres"},
}

// MediaSelection is the set of channels that must all be present.
type MediaSelection struct {
	Channels []string
}

func (s MediaSelection) Active() bool { return len(s.Channels) > 0 }

// MediaFilter keeps rows where every selected channel has a value. This is
// an AND across each channel's own presence column, not membership in one
// column.
//
// Policy: when any selected channel has no matching column, no row can
// satisfy the conjunction, so the filter fails closed.
type MediaFilter struct{}

// NewMediaFilter filters on media-channel presence.
func NewMediaFilter() *MediaFilter { return &MediaFilter{} }

func (f *MediaFilter) Name() string  { return "media" }
func (f *MediaFilter) Label() string { return "Media" }
func (f *MediaFilter) Kind() Kind    { return KindMultiselect }

func (f *MediaFilter) DistinctValues(context.Context) ([]string, error) {
	return append([]string(nil), MediaChannels...), nil
}

func (f *MediaFilter) Decode(raw any) (Selection, error) {
	values, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	var channels []string
	for _, v := range values {
		if ch := strings.ToLower(strings.TrimSpace(v)); ch != "" {
			channels = append(channels, ch)
		}
	}
	return MediaSelection{Channels: channels}, nil
}

func (f *MediaFilter) Apply(rows Stream, header schema.Header, sel Selection) Stream {
	media, ok := sel.(MediaSelection)
	if !ok || !media.Active() {
		return passthrough(rows)
	}

	indices := make([]int, 0, len(media.Channels))
	for _, ch := range media.Channels {
		candidates, known := mediaColumns[ch]
		if !known {
			candidates = []string{ch}
		}
		idx, found := header.Index(candidates...)
		if !found {
			return nothing
		}
		indices = append(indices, idx)
	}

	return func(yield func(schema.Row) bool) {
		for row := range rows {
			all := true
			for _, idx := range indices {
				if !HasValue(row.RawCell(idx)) {
					all = false
					break
				}
			}
			if all && !yield(row) {
				return
			}
		}
	}
}
