package model

import (
	"sort"
	"time"
)

// InteractionType enumerates user actions on a comparison.
type InteractionType string

// Interaction types.
const (
	InteractionView             InteractionType = "view"
	InteractionSelect           InteractionType = "select"
	InteractionSwitch           InteractionType = "switch"
	InteractionClickCompareMore InteractionType = "click_compare_more"
)

// InteractionTypes lists every valid interaction type in display order.
func InteractionTypes() []InteractionType {
	return []InteractionType{InteractionView, InteractionSelect, InteractionSwitch, InteractionClickCompareMore}
}

// Valid reports whether t is one of the enumerated interaction types.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionSelect, InteractionSwitch, InteractionClickCompareMore:
		return true
	}
	return false
}

// ComparisonContext records where a comparison was shown.
type ComparisonContext string

// Comparison contexts.
const (
	ContextHomePage       ComparisonContext = "home_page"
	ContextFullComparison ComparisonContext = "full_comparison"
	ContextRandom         ComparisonContext = "random"
)

// ComparisonContexts lists every valid comparison context.
func ComparisonContexts() []ComparisonContext {
	return []ComparisonContext{ContextHomePage, ContextFullComparison, ContextRandom}
}

// Valid reports whether c is one of the enumerated contexts.
func (c ComparisonContext) Valid() bool {
	switch c {
	case ContextHomePage, ContextFullComparison, ContextRandom:
		return true
	}
	return false
}

// InteractionEvent is an append-only record of engagement with a comparison.
type InteractionEvent struct {
	ID              string            `json:"id"`
	RobotAID        string            `json:"robot_1_id"`
	RobotBID        string            `json:"robot_2_id"`
	InteractionType InteractionType   `json:"interaction_type"`
	ComparisonType  ComparisonContext `json:"comparison_type"`
	SessionID       string            `json:"session_id,omitempty"`
	UserID          string            `json:"user_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// CanonicalPair orders two ids so (a, b) and (b, a) group together.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// PairCount is one aggregated unordered robot pair.
type PairCount struct {
	RobotAID string    `json:"robot_1_id"`
	RobotBID string    `json:"robot_2_id"`
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// RankPairs sorts by count desc, most recent interaction first on ties, and
// ids asc for a stable order, then truncates to limit (limit <= 0 keeps all).
func RankPairs(pairs []PairCount, limit int) []PairCount {
	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if !a.LastSeen.Equal(b.LastSeen) {
			return a.LastSeen.After(b.LastSeen)
		}
		if a.RobotAID != b.RobotAID {
			return a.RobotAID < b.RobotAID
		}
		return a.RobotBID < b.RobotBID
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// Role is the side a robot occupied in an interaction.
type Role string

// Roles.
const (
	RoleA Role = "a"
	RoleB Role = "b"
)

// InteractionTally is a grouped slice of a robot's interactions. Stores emit
// tallies and EntityStats folds them.
type InteractionTally struct {
	InteractionType InteractionType
	ComparisonType  ComparisonContext
	Role            Role
	OpponentID      string
	Count           int
	LastSeen        time.Time
}

// EntityStats summarizes every recorded comparison involving one robot.
type EntityStats struct {
	RobotID           string                    `json:"robot_id"`
	TotalInteractions int                       `json:"total_interactions"`
	ByType            map[InteractionType]int   `json:"by_type"`
	ByContext         map[ComparisonContext]int `json:"by_context"`
	AsRobotA          int                       `json:"as_robot_1"`
	AsRobotB          int                       `json:"as_robot_2"`
	UniqueOpponents   int                       `json:"unique_opponents"`
	MostComparedWith  string                    `json:"most_compared_with,omitempty"`
	LastInteractionAt *time.Time                `json:"last_interaction_at"`
}

// NewEntityStats folds tallies into stats for robotID. Both maps are
// zero-filled so every enumerated key is present.
func NewEntityStats(robotID string, tallies []InteractionTally) EntityStats {
	s := EntityStats{
		RobotID:   robotID,
		ByType:    make(map[InteractionType]int, len(InteractionTypes())),
		ByContext: make(map[ComparisonContext]int, len(ComparisonContexts())),
	}
	for _, t := range InteractionTypes() {
		s.ByType[t] = 0
	}
	for _, c := range ComparisonContexts() {
		s.ByContext[c] = 0
	}

	opponents := make(map[string]int)
	for _, t := range tallies {
		s.TotalInteractions += t.Count
		s.ByType[t.InteractionType] += t.Count
		s.ByContext[t.ComparisonType] += t.Count
		if t.Role == RoleA {
			s.AsRobotA += t.Count
		} else {
			s.AsRobotB += t.Count
		}
		opponents[t.OpponentID] += t.Count
		if s.LastInteractionAt == nil || t.LastSeen.After(*s.LastInteractionAt) {
			last := t.LastSeen
			s.LastInteractionAt = &last
		}
	}

	s.UniqueOpponents = len(opponents)
	best := 0
	for id, n := range opponents {
		if n > best || (n == best && id < s.MostComparedWith) {
			best, s.MostComparedWith = n, id
		}
	}
	return s
}
