// Package enrich models the enrichment steps whose results feed branch
// expressions: VirusTotal hash and URL lookups plus AbuseIPDB/GeoIP. The
// bundled implementation is a mock; real API clients plug in behind the
// Lookuper interface.
package enrich

// Step names as they appear in ${steps.<name>.<field>} references.
const (
	StepVTHash    = "vt_hash"
	StepVTURL     = "vt_url"
	StepAbuseIPDB = "abuseipdb"
)

// Config toggles which enrichment steps are enabled. JSON keys mirror the
// playbook editor's field names; the abuseipdb step is toggled by the
// abuseipdb_geoip flag.
type Config struct {
	VTHash         bool `json:"vt_hash"`
	VTURL          bool `json:"vt_url"`
	AbuseIPDBGeoIP bool `json:"abuseipdb_geoip"`
}

// Enabled reports whether the named step is switched on. Unknown steps are
// always off.
func (c Config) Enabled(step string) bool {
	switch step {
	case StepVTHash:
		return c.VTHash
	case StepVTURL:
		return c.VTURL
	case StepAbuseIPDB:
		return c.AbuseIPDBGeoIP
	}
	return false
}

// Enable switches the named step on. Unknown steps are ignored.
func (c *Config) Enable(step string) {
	switch step {
	case StepVTHash:
		c.VTHash = true
	case StepVTURL:
		c.VTURL = true
	case StepAbuseIPDB:
		c.AbuseIPDBGeoIP = true
	}
}

// DisplayName returns the human-readable name used in diagnostics.
func DisplayName(step string) (string, bool) {
	switch step {
	case StepVTHash:
		return "VirusTotal Hash lookup", true
	case StepVTURL:
		return "VirusTotal URL reputation", true
	case StepAbuseIPDB:
		return "AbuseIPDB / GeoIP", true
	}
	return "", false
}

// StepResults maps a step name to its result fields. Results are never
// mutated after creation.
type StepResults map[string]map[string]interface{}

// Resolve walks a dotted path (step name first, then result fields).
func (s StepResults) Resolve(path []string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	fields, ok := s[path[0]]
	if !ok {
		return nil, false
	}
	var cur interface{} = fields
	for _, part := range path[1:] {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
