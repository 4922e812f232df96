package entity

import (
	"time"
)

// ContentMetadata represents the analysis result for one content blob
// fetched from the metadata store, keyed by content id.
type ContentMetadata struct {
	CID                   string                 `json:"cid"`
	ContentType           string                 `json:"content_type"`
	AuthenticityScore     float64                `json:"authenticity_score"`
	CopyrightRisk         bool                   `json:"copyright_risk"`
	StandardizationIssues []string               `json:"standardization_issues,omitempty"`
	RawMetadata           map[string]interface{} `json:"raw_metadata,omitempty"`
	LastAnalyzed          time.Time              `json:"last_analyzed"`
}

// AnalyzeContent derives the analysis fields from a raw metadata blob.
func AnalyzeContent(cid string, metadata map[string]interface{}, now time.Time) *ContentMetadata {
	return &ContentMetadata{
		CID:                   cid,
		ContentType:           determineContentType(metadata),
		AuthenticityScore:     authenticityScore(metadata),
		CopyrightRisk:         false,
		StandardizationIssues: standardizationIssues(metadata),
		RawMetadata:           metadata,
		LastAnalyzed:          now,
	}
}

func determineContentType(metadata map[string]interface{}) string {
	if _, ok := metadata["image"]; ok {
		return "image"
	}
	if _, ok := metadata["animation_url"]; ok {
		return "video"
	}
	return "unknown"
}

// authenticityScore starts from a neutral baseline and discounts blobs
// missing the fields marketplaces rely on.
func authenticityScore(metadata map[string]interface{}) float64 {
	score := 0.8
	if _, ok := metadata["name"]; !ok {
		score -= 0.2
	}
	if _, ok := metadata["image"]; !ok {
		score -= 0.1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// standardizationIssues checks the blob against the ERC-721 metadata shape.
func standardizationIssues(metadata map[string]interface{}) []string {
	var issues []string
	if _, ok := metadata["name"]; !ok {
		issues = append(issues, "missing name field")
	}
	if _, ok := metadata["description"]; !ok {
		issues = append(issues, "missing description field")
	}
	if _, ok := metadata["image"]; !ok {
		issues = append(issues, "missing image field")
	}
	return issues
}
