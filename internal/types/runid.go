package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ComputeRunID derives a deterministic run identifier from the inputs that
// define a run: strategy key, resolved parameters, symbol and date range.
// Identical runs always share an identifier, so re-running an evaluation
// overwrites its previous stored result instead of duplicating it.
func ComputeRunID(strategyKey string, params map[string]float64, symbol string, start, end time.Time) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var sb strings.Builder

	sb.WriteString(strategyKey)
	sb.WriteByte('|')
	sb.WriteString(symbol)
	sb.WriteByte('|')
	sb.WriteString(start.UTC().Format(time.RFC3339))
	sb.WriteByte('|')
	sb.WriteString(end.UTC().Format(time.RFC3339))

	for _, key := range keys {
		fmt.Fprintf(&sb, "|%s=%v", key, params[key])
	}

	sum := sha256.Sum256([]byte(sb.String()))

	return hex.EncodeToString(sum[:])[:16]
}
