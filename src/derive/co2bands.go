package derive

// Band is one half-open CO2 severity interval [Start, End) with the text and
// display color shown for values inside it.
type Band struct {
	Start       float64
	End         float64
	Description string
	Color       string
}

// BandTable is an ordered set of bands. A well-formed table is contiguous and
// non-overlapping and together covers the full expected input range; Lookup
// on a value outside the table yields no match rather than a fallback.
type BandTable []Band

// Lookup returns the band containing v, if any.
func (t BandTable) Lookup(v float64) (Band, bool) {
	for _, b := range t {
		if v >= b.Start && v < b.End {
			return b, true
		}
	}
	return Band{}, false
}

// DefaultCO2Bands is the indoor-air severity table used by the viewer.
var DefaultCO2Bands = BandTable{
	{Start: 0, End: 600, Description: "Good", Color: "#43a047"},
	{Start: 600, End: 1000, Description: "Moderate", Color: "#fdd835"},
	{Start: 1000, End: 1500, Description: "Poor", Color: "#fb8c00"},
	{Start: 1500, End: 2500, Description: "Bad", Color: "#e53935"},
	{Start: 2500, End: 40000, Description: "Severe", Color: "#8e24aa"},
}
