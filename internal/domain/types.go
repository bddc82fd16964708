// File: internal/domain/types.go
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ItemKind discriminates lost reports from found reports.
type ItemKind string

const (
	KindLost  ItemKind = "lost"
	KindFound ItemKind = "found"
)

// ParseItemKind normalizes a type hint. An empty hint yields ("", nil).
func ParseItemKind(raw string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "lost", "lostitem":
		return KindLost, nil
	case "found", "founditem":
		return KindFound, nil
	}
	return "", fmt.Errorf("unknown item type %q", raw)
}

func (k ItemKind) Valid() bool {
	return k == KindLost || k == KindFound
}

// Other returns the opposite kind.
func (k ItemKind) Other() ItemKind {
	if k == KindLost {
		return KindFound
	}
	return KindLost
}

// ItemRef identifies an item together with its kind. Kind may be empty when the
// client sent a bare id without a type hint; the item store resolves it.
type ItemRef struct {
	Kind ItemKind  `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// ParseItemRef decodes the identifiers clients send: "found_<uuid>", "lost_<uuid>"
// or a bare uuid, optionally with a separate type hint. A prefix wins over the hint.
func ParseItemRef(raw, hint string) (ItemRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ItemRef{}, fmt.Errorf("item id is required")
	}

	kind, err := ParseItemKind(hint)
	if err != nil {
		return ItemRef{}, err
	}

	idPart := raw
	if prefix, rest, ok := strings.Cut(raw, "_"); ok {
		pk, perr := ParseItemKind(prefix)
		if perr != nil || pk == "" {
			return ItemRef{}, fmt.Errorf("unknown item id prefix %q", prefix)
		}
		kind, idPart = pk, rest
	}

	id, err := uuid.Parse(idPart)
	if err != nil {
		return ItemRef{}, fmt.Errorf("invalid item id %q", raw)
	}
	return ItemRef{Kind: kind, ID: id}, nil
}

// String renders the ref in the prefixed form accepted by ParseItemRef.
func (r ItemRef) String() string {
	if r.Kind == "" {
		return r.ID.String()
	}
	return string(r.Kind) + "_" + r.ID.String()
}

// ItemStatus is the lifecycle of an item report.
type ItemStatus string

const (
	ItemOpen     ItemStatus = "open"
	ItemClaimed  ItemStatus = "claimed"
	ItemReturned ItemStatus = "returned"
)

func (s ItemStatus) Valid() bool {
	return s == ItemOpen || s == ItemClaimed || s == ItemReturned
}

// RequiresClaimant reports whether the status needs a claimant assigned.
func (s ItemStatus) RequiresClaimant() bool {
	return s == ItemClaimed || s == ItemReturned
}

// ApprovalStatus is the moderation state shared by items and claims.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	return s == ApprovalPending || s == ApprovalApproved || s == ApprovalRejected
}
