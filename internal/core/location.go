package core

import (
	"encoding/json"
	"fmt"
)

// LocationKind is the type of place a ledger entry can sit at.
type LocationKind string

const (
	KindWarehouse LocationKind = "warehouse"
	KindShowroom  LocationKind = "showroom"
)

// ParseLocationKind accepts the persisted kind strings.
func ParseLocationKind(s string) (LocationKind, error) {
	switch LocationKind(s) {
	case KindWarehouse, KindShowroom:
		return LocationKind(s), nil
	}
	return "", &ValidationError{Field: "location_kind", Message: fmt.Sprintf("unknown location kind %q", s)}
}

// LedgerLocation is anything a Sample can be held at. Warehouse, Showroom and
// LocationRef all satisfy it.
type LedgerLocation interface {
	LocationKind() LocationKind
	LocationID() int64
}

// LocationRef is a tagged reference to either a warehouse or a showroom.
// The zero value is not a valid location.
type LocationRef struct {
	kind LocationKind
	id   int64
}

// WarehouseRef references a warehouse by id.
func WarehouseRef(id int64) LocationRef { return LocationRef{kind: KindWarehouse, id: id} }

// ShowroomRef references a showroom by id.
func ShowroomRef(id int64) LocationRef { return LocationRef{kind: KindShowroom, id: id} }

// RefOf converts any LedgerLocation into a LocationRef.
func RefOf(l LedgerLocation) LocationRef {
	return LocationRef{kind: l.LocationKind(), id: l.LocationID()}
}

func (l LocationRef) LocationKind() LocationKind { return l.kind }
func (l LocationRef) LocationID() int64          { return l.id }

// IsZero reports whether the reference points nowhere.
func (l LocationRef) IsZero() bool { return l.kind == "" || l.id == 0 }

func (l LocationRef) String() string {
	if l.IsZero() {
		return "nowhere"
	}
	return fmt.Sprintf("%s#%d", l.kind, l.id)
}

type locationRefJSON struct {
	Kind LocationKind `json:"kind"`
	ID   int64        `json:"id"`
}

func (l LocationRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationRefJSON{Kind: l.kind, ID: l.id})
}

func (l *LocationRef) UnmarshalJSON(data []byte) error {
	var raw locationRefJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := ParseLocationKind(string(raw.Kind))
	if err != nil {
		return err
	}
	if raw.ID <= 0 {
		return &ValidationError{Field: "location.id", Message: "must be a positive id"}
	}
	*l = LocationRef{kind: kind, id: raw.ID}
	return nil
}
