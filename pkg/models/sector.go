package models

import (
	"fmt"
	"strings"
)

// Industry identifies one industry within a sector.
type Industry struct {
	Name string `json:"name"` // display name, e.g., "Semiconductors"
	Key  string `json:"key"`  // API key, e.g., "semiconductors"
}

// RankMethod selects which upstream company ordering to fetch for an industry.
type RankMethod string

const (
	RankTopCompanies  RankMethod = "top_companies"
	RankTopGrowth     RankMethod = "top_growth_companies"
	RankTopPerformers RankMethod = "top_performing_companies"
)

// ParseRankMethod accepts the CLI/API spellings for a ranking method.
func ParseRankMethod(s string) (RankMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "top", "top_companies", "companies":
		return RankTopCompanies, nil
	case "growth", "top_growth", "top_growth_companies":
		return RankTopGrowth, nil
	case "performance", "performers", "top_performers", "top_performing_companies":
		return RankTopPerformers, nil
	}
	return "", fmt.Errorf("unknown ranking method %q (want top, growth, or performance)", s)
}

// NewsItem is a single headline from a financial news feed.
type NewsItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Published string `json:"published,omitempty"`
}
