package quality

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/marquee/marquee/internal/formvalue"
)

var ErrUnknownPreset = errors.New("unknown quality preset")

// preferredShift is the offset of the preferred bits in a combined quality value.
const preferredShift = 16

// Tier is a single quality class.
type Tier struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Bit   int    `json:"bit"`
}

// Tiers are the known quality tiers, lowest first.
var Tiers = []Tier{
	{Name: "unknown", Title: "Unknown", Bit: 1 << 0},
	{Name: "sdtv", Title: "SDTV", Bit: 1 << 1},
	{Name: "sddvd", Title: "SD DVD", Bit: 1 << 2},
	{Name: "hdtv", Title: "720p HDTV", Bit: 1 << 3},
	{Name: "rawhdtv", Title: "RawHD", Bit: 1 << 4},
	{Name: "fullhdtv", Title: "1080p HDTV", Bit: 1 << 5},
	{Name: "hdwebdl", Title: "720p WEB-DL", Bit: 1 << 6},
	{Name: "fullhdwebdl", Title: "1080p WEB-DL", Bit: 1 << 7},
	{Name: "hdbluray", Title: "720p BluRay", Bit: 1 << 8},
	{Name: "fullhdbluray", Title: "1080p BluRay", Bit: 1 << 9},
	{Name: "uhd4ktv", Title: "4K UHD TV", Bit: 1 << 10},
	{Name: "uhd8ktv", Title: "8K UHD TV", Bit: 1 << 11},
	{Name: "uhd4kwebdl", Title: "4K UHD WEB-DL", Bit: 1 << 12},
	{Name: "uhd8kwebdl", Title: "8K UHD WEB-DL", Bit: 1 << 13},
	{Name: "uhd4kbluray", Title: "4K UHD BluRay", Bit: 1 << 14},
	{Name: "uhd8kbluray", Title: "8K UHD BluRay", Bit: 1 << 15},
}

var tierByName = func() map[string]Tier {
	m := make(map[string]Tier, len(Tiers))
	for _, t := range Tiers {
		m[t.Name] = t
	}
	return m
}()

// TierByName looks a tier up by its token.
func TierByName(name string) (Tier, bool) {
	t, ok := tierByName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Selection is a pair of allowed and preferred tier sets. Order is not significant.
type Selection struct {
	Allowed   []string `json:"allowed"`
	Preferred []string `json:"preferred"`
}

// Equal compares two selections as sets.
func (s Selection) Equal(o Selection) bool {
	return sameSet(s.Allowed, o.Allowed) && sameSet(s.Preferred, o.Preferred)
}

func sameSet(a, b []string) bool {
	as, bs := sortedCopy(a), sortedCopy(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func sortedCopy(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Combine packs allowed and preferred tiers into a single value.
// Unknown tokens contribute nothing.
func Combine(allowed, preferred []string) int {
	var low, high int
	for _, name := range allowed {
		if t, ok := TierByName(name); ok {
			low |= t.Bit
		}
	}
	for _, name := range preferred {
		if t, ok := TierByName(name); ok {
			high |= t.Bit
		}
	}
	return low | high<<preferredShift
}

// Split unpacks a combined value into tier tokens, in tier order.
func Split(value int) Selection {
	sel := Selection{Allowed: []string{}, Preferred: []string{}}
	for _, t := range Tiers {
		if value&t.Bit != 0 {
			sel.Allowed = append(sel.Allowed, t.Name)
		}
		if value&(t.Bit<<preferredShift) != 0 {
			sel.Preferred = append(sel.Preferred, t.Name)
		}
	}
	return sel
}

// ParseList normalizes a comma-separated tier list.
func ParseList(v string) []string {
	return formvalue.List(v)
}

// Preset is a named combined quality.
type Preset struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Presets are the predefined quality combinations.
var Presets = []Preset{
	{Name: "any", Value: Combine([]string{"sdtv", "sddvd", "hdtv", "rawhdtv", "fullhdtv", "hdwebdl", "fullhdwebdl", "hdbluray", "fullhdbluray", "unknown"}, nil)},
	{Name: "sd", Value: Combine([]string{"sdtv", "sddvd"}, nil)},
	{Name: "hd", Value: Combine([]string{"hdtv", "fullhdtv", "hdwebdl", "fullhdwebdl", "hdbluray", "fullhdbluray"}, nil)},
	{Name: "hd720p", Value: Combine([]string{"hdtv", "hdwebdl", "hdbluray"}, nil)},
	{Name: "hd1080p", Value: Combine([]string{"fullhdtv", "fullhdwebdl", "fullhdbluray"}, nil)},
	{Name: "uhd", Value: Combine([]string{"uhd4ktv", "uhd8ktv", "uhd4kwebdl", "uhd8kwebdl", "uhd4kbluray", "uhd8kbluray"}, nil)},
	{Name: "uhd4k", Value: Combine([]string{"uhd4ktv", "uhd4kwebdl", "uhd4kbluray"}, nil)},
	{Name: "uhd8k", Value: Combine([]string{"uhd8ktv", "uhd8kwebdl", "uhd8kbluray"}, nil)},
}

// PresetByName returns the combined value of a named preset.
func PresetByName(name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range Presets {
		if p.Name == name {
			return p.Value, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}
