// internal/scheduler/generation.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/modbus-collector/internal/model"
	"github.com/tamzrod/modbus-collector/internal/poller"
	"github.com/tamzrod/modbus-collector/internal/writer"
)

// Unit is one table and the tags loaded for it.
type Unit struct {
	Table model.MonitoringTable
	Tags  []model.Tag
}

// Generation is the configuration snapshot every poller of one bootstrap
// shares. It is never mutated; a reload builds a new one.
type Generation struct {
	ID        uuid.UUID
	Seq       uint64
	StartedAt time.Time
	Units     []Unit

	// Skipped holds the IDs of active tables left out as unpollable.
	Skipped []int
}

// pipeline is one table's running poller and its sink.
type pipeline struct {
	poller *poller.Poller
	writer *writer.Writer
	close  func() error
}

// running tracks the goroutines of the active generation.
type running struct {
	gen       *Generation
	pipelines []pipeline
	skipped   []int
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}
