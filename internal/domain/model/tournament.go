package model

import "fmt"

// BracketType is the format of a tournament bracket.
type BracketType string

// Supported bracket formats.
const (
	BracketRoundRobin        BracketType = "round_robin"
	BracketSingleElimination BracketType = "single_elimination"
	BracketDoubleElimination BracketType = "double_elimination"
)

// ParseBracketType validates s as a bracket format.
func ParseBracketType(s string) (BracketType, error) {
	switch bt := BracketType(s); bt {
	case BracketRoundRobin, BracketSingleElimination, BracketDoubleElimination:
		return bt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBracketType, s)
	}
}

// Team is a tournament side with its roster.
type Team struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Color   string   `json:"color,omitempty"`
	Players []string `json:"players"`
}

// BracketMatch links a match index to the round that settled it.
type BracketMatch struct {
	Match int   `json:"match"`
	Round Round `json:"round"`
}

// Tournament holds the teams and recorded matches of a bracket.
type Tournament struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	GroupID     string         `json:"group_id"`
	BracketType BracketType    `json:"bracket_type"`
	Teams       []Team         `json:"teams"`
	Matches     []BracketMatch `json:"matches"`
}
