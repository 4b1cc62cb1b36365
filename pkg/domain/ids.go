// Package domain defines typed identifiers shared across the service.
//
// IDs wrap uuid.UUID so the compiler rejects cross-type assignment (an
// investor ID can never be passed where an asset ID is expected). Construct
// via Parse* at trust boundaries; direct casting bypasses validation.
package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "factorline/pkg/domain-errors"
)

type (
	// PartyID identifies a marketplace participant: a business owner, an
	// investor, or the administrative authority.
	PartyID uuid.UUID

	// AssetID identifies the settlement asset accepted by the marketplace.
	AssetID uuid.UUID
)

// InvoiceID is the caller-supplied unique key of an invoice record.
type InvoiceID uint64

func (p PartyID) String() string { return uuid.UUID(p).String() }
func (a AssetID) String() string { return uuid.UUID(a).String() }

// IsNil reports whether the party ID is unset.
func (p PartyID) IsNil() bool { return uuid.UUID(p) == uuid.Nil }

// IsNil reports whether the asset ID is unset.
func (a AssetID) IsNil() bool { return uuid.UUID(a) == uuid.Nil }

// Bytes returns the raw identity bytes. The risk engine derives its
// deterministic credit signal from these.
func (p PartyID) Bytes() [16]byte { return uuid.UUID(p) }

func (i InvoiceID) String() string { return strconv.FormatUint(uint64(i), 10) }

// MarshalText renders the ID in canonical UUID form for JSON and logs.
func (p PartyID) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText parses the canonical UUID form.
func (p *PartyID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*p = PartyID(u)
	return nil
}

// MarshalText renders the ID in canonical UUID form for JSON and logs.
func (a AssetID) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText parses the canonical UUID form.
func (a *AssetID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*a = AssetID(u)
	return nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be the nil UUID", what)
	}
	return u, nil
}

// ParsePartyID constructs a PartyID from external input.
func ParsePartyID(s string) (PartyID, error) {
	u, err := parseUUID(s, "party id")
	if err != nil {
		return PartyID{}, err
	}
	return PartyID(u), nil
}

// ParseAssetID constructs an AssetID from external input.
func ParseAssetID(s string) (AssetID, error) {
	u, err := parseUUID(s, "asset id")
	if err != nil {
		return AssetID{}, err
	}
	return AssetID(u), nil
}

// ParseInvoiceID constructs an InvoiceID from its decimal string form.
func ParseInvoiceID(s string) (InvoiceID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invoice id cannot be empty")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invoice id must be a decimal integer")
	}
	return InvoiceID(n), nil
}
