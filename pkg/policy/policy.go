// Package policy models the validation policy a store operation carries.
// A policy is serialized to canonical JSON and bound to the request
// signature, so the service can enforce upload constraints without a
// prior round trip.
package policy

import (
	"encoding/base64"
	"fmt"

	"github.com/bytedance/sonic"
)

// canonicalJSON sorts map keys so the same policy always encodes to the
// same bytes. The signature is computed over the encoded form, so the
// encoding must be deterministic.
var canonicalJSON = sonic.Config{SortMapKeys: true}.Froze()

type AccessControl string

const (
	AccessPublic  AccessControl = "public"
	AccessPrivate AccessControl = "private"
)

// Policy describes the constraints a store operation must satisfy
// server-side. Condition names are caller-supplied and matched against
// service-defined attribute names; this package treats them as opaque.
//
// A policy is immutable once attached to a command: the client
// serializes it at signing time and never writes to it.
type Policy struct {
	Conditions    map[string]Condition `json:"conditions"`
	AccessControl AccessControl        `json:"accessControl" validate:"required,oneof=public private"`
}

// New creates a policy with the given access control mode and no
// conditions. Conditions are added with With before the policy is
// attached to a command.
func New(ac AccessControl) Policy {
	return Policy{
		Conditions:    make(map[string]Condition),
		AccessControl: ac,
	}
}

// With returns a copy of the policy with one more condition set.
func (p Policy) With(name string, c Condition) Policy {
	conds := make(map[string]Condition, len(p.Conditions)+1)
	for k, v := range p.Conditions {
		conds[k] = v
	}
	conds[name] = c
	return Policy{Conditions: conds, AccessControl: p.AccessControl}
}

// Encode serializes the policy to canonical JSON and returns the
// base64 form carried in the x-medoro-policy query parameter.
func (p Policy) Encode() (string, error) {
	raw, err := canonicalJSON.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal policy: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses the base64/JSON form produced by Encode.
func Decode(encoded string) (Policy, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Policy{}, fmt.Errorf("decode policy base64: %w", err)
	}
	var p Policy
	if err := canonicalJSON.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("unmarshal policy: %w", err)
	}
	return p, nil
}
