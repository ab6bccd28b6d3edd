package models

// SequenceCodes is the fixed set of known machining sequence states,
// in nominal progression order.
var SequenceCodes = []string{"00", "01", "02", "03", "04"}

// SequenceInfo is the display vocabulary for one sequence state, shared
// between the core and the dashboard frontend.
type SequenceInfo struct {
	Code    string `json:"code"`
	Label   string `json:"label" yaml:"label"`
	Color   string `json:"color" yaml:"color"`
	BgColor string `json:"bgColor" yaml:"bg_color"`
}

var sequenceMap = map[string]SequenceInfo{
	"00": {Code: "00", Label: "Idle", Color: "#6B7280", BgColor: "#F3F4F6"},
	"01": {Code: "01", Label: "Initializing", Color: "#2563EB", BgColor: "#DBEAFE"},
	"02": {Code: "02", Label: "Preparing", Color: "#D97706", BgColor: "#FEF3C7"},
	"03": {Code: "03", Label: "Machining", Color: "#EA580C", BgColor: "#FED7AA"},
	"04": {Code: "04", Label: "Complete", Color: "#16A34A", BgColor: "#DCFCE7"},
}

// DescribeSequence returns the display info for a sequence code. Unknown
// codes get a deterministic error-palette fallback with the code preserved.
func DescribeSequence(code string) SequenceInfo {
	if info, ok := sequenceMap[code]; ok {
		return info
	}
	return SequenceInfo{Code: code, Label: "Unknown", Color: "#DC2626", BgColor: "#FEE2E2"}
}

// DisplayRules is the YAML document operators upload to override the
// built-in sequence labels and colors.
type DisplayRules struct {
	Sequences []SequenceRule `json:"sequences" yaml:"sequences"`
}

// SequenceRule overrides the display info for one known sequence code.
// Empty fields keep their defaults.
type SequenceRule struct {
	Code    string `json:"code" yaml:"code"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Color   string `json:"color,omitempty" yaml:"color,omitempty"`
	BgColor string `json:"bgColor,omitempty" yaml:"bg_color,omitempty"`
}
