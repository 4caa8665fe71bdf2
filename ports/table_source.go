package ports

import (
	"goprove/domain/dataset"
)

// TableSource is the upstream table-scoped read interface consumed by
// the canonical hasher. Ingestion and bar materialization live behind
// it as opaque writers; the control plane only reads.
type TableSource = dataset.TableReader
