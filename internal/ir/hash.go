package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainConstraints = "sqlprobe/constraints/v1"
	DomainExecutions  = "sqlprobe/executions/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ConstraintsFingerprint hashes an ordered constraint list.
// Two analysis passes over the same types yield the same fingerprint.
func ConstraintsFingerprint(constraints []ColumnConstraint) (string, error) {
	list := make([]any, len(constraints))
	for i, c := range constraints {
		list[i] = c
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("ConstraintsFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConstraints, canonical), nil
}

// ExecutionsFingerprint hashes the statement/outcome sequence of an
// execution trace. Durations are excluded so that two runs of the same
// traffic compare equal.
func ExecutionsFingerprint(facts []ExecutionFact) (string, error) {
	list := make([]any, len(facts))
	for i, f := range facts {
		list[i] = map[string]any{
			"statement": f.Statement,
			"operation": f.Operation,
			"failed":    f.Failed,
		}
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("ExecutionsFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainExecutions, canonical), nil
}
