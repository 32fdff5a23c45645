//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package movement

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Status is the lifecycle state of a movement.
type Status string

// The closed set of statuses a movement can carry. StatusOther only appears
// when the pass-through policy is in effect.
const (
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusDelayed   Status = "delayed"
	StatusCancelled Status = "cancelled"
	StatusOther     Status = "other"
)

// StatusPolicy decides what happens to a row whose status is not part of
// the enumeration.
type StatusPolicy string

const (
	// PolicyReject drops rows with an unknown status.
	PolicyReject StatusPolicy = "reject"

	// PolicyOther keeps rows with an unknown status as StatusOther.
	PolicyOther StatusPolicy = "other"
)

// ParsePolicy converts a configuration value into a StatusPolicy.
func ParsePolicy(s string) (StatusPolicy, error) {
	switch StatusPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyReject, "":
		return PolicyReject, nil
	case PolicyOther:
		return PolicyOther, nil
	default:
		return "", fmt.Errorf("unknown status policy: %s", s)
	}
}

// StatusInfo describes one member of the enumeration.
type StatusInfo struct {
	Status  Status
	Label   string
	Aliases []string
}

// statuses is the single declaration of known statuses, in display order.
var statuses = []StatusInfo{
	{
		Status:  StatusInTransit,
		Label:   "Em Trânsito",
		Aliases: []string{"em transito", "in transit", "in-transit", "in_transit"},
	},
	{
		Status:  StatusDelivered,
		Label:   "Entregue",
		Aliases: []string{"entregue", "delivered"},
	},
	{
		Status:  StatusDelayed,
		Label:   "Atrasado",
		Aliases: []string{"atrasado", "delayed"},
	},
	{
		Status:  StatusCancelled,
		Label:   "Cancelado",
		Aliases: []string{"cancelado", "cancelled", "canceled"},
	},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]Status {
	idx := make(map[string]Status)
	for _, info := range statuses {
		idx[foldStatus(info.Label)] = info.Status
		for _, alias := range info.Aliases {
			idx[foldStatus(alias)] = info.Status
		}
	}
	return idx
}

// foldStatus strips accents, case folds and collapses inner whitespace so
// that "EM TRÂNSITO" and "em  transito" resolve to the same key.
func foldStatus(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

// Statuses returns the known statuses in display order.
func Statuses() []StatusInfo {
	out := make([]StatusInfo, len(statuses))
	copy(out, statuses)
	return out
}

// LookupStatus maps a source label or alias onto the enumeration.
func LookupStatus(s string) (Status, bool) {
	st, ok := aliasIndex[foldStatus(s)]
	return st, ok
}

// Label returns the source label for the status.
func (s Status) Label() string {
	for _, info := range statuses {
		if info.Status == s {
			return info.Label
		}
	}
	if s == StatusOther {
		return "Outro"
	}
	return string(s)
}

// Rank is the position of the status in display order. StatusOther and
// unrecognized values sort last.
func (s Status) Rank() int {
	for i, info := range statuses {
		if info.Status == s {
			return i
		}
	}
	return len(statuses)
}

func (s Status) String() string {
	return string(s)
}
