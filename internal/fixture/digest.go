package fixture

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/zeebo/blake3"

	"vcheck/internal/domain"
)

// Digest fingerprints the oracle table: function, event and cases in order.
// The name and the file format do not take part, so a fixture converted from
// YAML to JSON, or renamed, keeps its digest.
func Digest(f *domain.Fixture) (string, error) {
	// Canonical JSON numbers are IEEE doubles, so inputs are fingerprinted as
	// decimal strings to keep int64 values beyond 2^53 distinct.
	type row struct {
		A        string `json:"a"`
		B        string `json:"b"`
		Expected string `json:"expected"`
	}
	body := struct {
		Function string `json:"function"`
		Event    string `json:"event"`
		Cases    []row  `json:"cases"`
	}{
		Function: f.FunctionName(),
		Event:    f.EventName(),
		Cases:    make([]row, 0, len(f.Cases)),
	}
	for _, tc := range f.Cases {
		body.Cases = append(body.Cases, row{
			A:        strconv.FormatInt(tc.InputA, 10),
			B:        strconv.FormatInt(tc.InputB, 10),
			Expected: strconv.FormatInt(int64(tc.Expected), 10),
		})
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal fixture: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize fixture: %w", err)
	}
	sum := blake3.Sum256(canonical)
	return "blake3:" + hex.EncodeToString(sum[:]), nil
}
