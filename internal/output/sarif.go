package output

import (
	"encoding/json"
	"io"

	"github.com/erik-smit/scrutinizer/internal/model"
)

// ToolVersion is the version reported in SARIF output.
var ToolVersion = "dev"

// SARIFFormatter outputs comments in SARIF 2.1.0 format for code scanning
// integrations.
type SARIFFormatter struct{}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool       `json:"tool"`
	AutomationDetails sarifAutomation `json:"automationDetails"`
	Results           []sarifResult   `json:"results"`
}

type sarifAutomation struct {
	GUID string `json:"guid"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID            string              `json:"id"`
	DefaultConfig sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties    sarifRuleProperties `json:"properties"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

func (f *SARIFFormatter) Format(w io.Writer, p *model.Project) error {
	ruleIndex := map[string]int{}
	rules := []sarifRule{}
	results := []sarifResult{}

	for _, file := range p.Files() {
		for _, lc := range file.Comments() {
			for _, c := range lc.Comments {
				id := ruleID(c)
				if _, ok := ruleIndex[id]; !ok {
					ruleIndex[id] = len(rules)
					var tags []string
					if c.Analyzer != "" {
						tags = []string{c.Analyzer}
					}
					rules = append(rules, sarifRule{
						ID:            id,
						DefaultConfig: sarifDefaultConfig{Level: severityToLevel(c.Severity)},
						Properties:    sarifRuleProperties{Tags: tags},
					})
				}
				results = append(results, sarifResult{
					RuleID:    id,
					RuleIndex: ruleIndex[id],
					Level:     severityToLevel(c.Severity),
					Message:   sarifMessage{Text: c.String()},
					Locations: []sarifLocation{{
						PhysicalLocation: sarifPhysicalLocation{
							ArtifactLocation: sarifArtifactLocation{URI: file.Path()},
							Region: sarifRegion{
								StartLine:   lc.Line,
								StartColumn: c.Column,
								EndLine:     c.EndLine,
								EndColumn:   c.EndColumn,
							},
						},
					}},
				})
			}
		}
	}

	log := sarifLog{
		Schema:  "https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    "scrutinizer",
				Version: ToolVersion,
				Rules:   rules,
			}},
			AutomationDetails: sarifAutomation{GUID: p.RunID()},
			Results:           results,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func ruleID(c model.Comment) string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Analyzer != "":
		return c.Analyzer
	default:
		return "scrutinizer"
	}
}

func severityToLevel(sev model.Severity) string {
	switch sev {
	case model.SeverityCritical, model.SeverityMajor:
		return "error"
	case model.SeverityMinor:
		return "warning"
	default:
		return "note"
	}
}
