// Package bucket defines the shared persisted-bucket layout used by the
// durable backends. Each collection is stored wholesale as one JSON array
// under the key {prefix}_{suffix}.
package bucket

import (
	"encoding/json"

	"assurecore/internal/infra/persistence/memory"
)

// DefaultPrefix namespaces this application's bucket keys within a shared
// database. Existing deployments persist under this prefix.
const DefaultPrefix = "investor_platform"

// Suffixes lists the persisted collections in their canonical order.
var Suffixes = []string{
	"businesses",
	"investors",
	"links",
	"reports",
	"audits",
	"threads",
	"messages",
	"evidence",
}

// Key joins a prefix and collection suffix into a full bucket key.
func Key(prefix, suffix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "_" + suffix
}

// Binding ties one bucket suffix to one snapshot collection.
type Binding struct {
	Suffix string
	Decode func(payload []byte) error
	Encode func() ([]byte, error)
}

// bind builds a Binding over a snapshot collection. Decoding replaces the
// collection wholesale so a failed unmarshal never leaves partial rows, and
// encoding writes an empty array rather than null for empty collections.
func bind[T any](suffix string, target *[]T) Binding {
	return Binding{
		Suffix: suffix,
		Decode: func(payload []byte) error {
			var rows []T
			if err := json.Unmarshal(payload, &rows); err != nil {
				return err
			}
			*target = rows
			return nil
		},
		Encode: func() ([]byte, error) {
			if *target == nil {
				return json.Marshal([]T{})
			}
			return json.Marshal(*target)
		},
	}
}

// SnapshotBindings returns one binding per collection, in canonical order.
func SnapshotBindings(snapshot *memory.Snapshot) []Binding {
	return []Binding{
		bind("businesses", &snapshot.Businesses),
		bind("investors", &snapshot.Investors),
		bind("links", &snapshot.Links),
		bind("reports", &snapshot.Reports),
		bind("audits", &snapshot.Audits),
		bind("threads", &snapshot.Threads),
		bind("messages", &snapshot.Messages),
		bind("evidence", &snapshot.Evidence),
	}
}
