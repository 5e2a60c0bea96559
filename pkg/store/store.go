// Package store persists pipeline results so runs can be fetched later by
// their run ID.
//
// Two backends are provided:
//   - memory: in-process storage for development and testing
//   - mongo: MongoDB-backed storage for the API server
//
// Records hold the serialized split module plus run metadata. Rendered
// artifacts are not stored here; they live in the cache and can always be
// regenerated from the module.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/graphsplit/pkg/graphio"
	"github.com/matzehuels/graphsplit/pkg/pipeline"
	"github.com/matzehuels/graphsplit/pkg/split"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when no record exists for a run ID.
	ErrNotFound = errors.New("run not found")
)

// Record is one persisted pipeline run.
type Record struct {
	RunID      string            `json:"run_id" bson:"run_id"`
	CreatedAt  time.Time         `json:"created_at" bson:"created_at"`
	GraphHash  string            `json:"graph_hash" bson:"graph_hash"`
	Policy     string            `json:"policy" bson:"policy"`
	NodeCount  int               `json:"node_count" bson:"node_count"`
	Partitions []PartitionRecord `json:"partitions" bson:"partitions"`
	Module     graphio.Module    `json:"module" bson:"module"`
}

// PartitionRecord is the stored form of one partition's metadata.
type PartitionRecord struct {
	Name       string   `json:"name" bson:"name"`
	Members    []string `json:"members,omitempty" bson:"members,omitempty"`
	Inputs     []string `json:"inputs,omitempty" bson:"inputs,omitempty"`
	Outputs    []string `json:"outputs,omitempty" bson:"outputs,omitempty"`
	DependsOn  []string `json:"depends_on,omitempty" bson:"depends_on,omitempty"`
	Dependents []string `json:"dependents,omitempty" bson:"dependents,omitempty"`
}

// Store is the interface for result storage backends.
type Store interface {
	// Save persists a record, overwriting any record with the same run ID.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves a record by run ID. Returns ErrNotFound if no record
	// exists.
	Get(ctx context.Context, runID string) (*Record, error)

	// Delete removes a record. Deleting a missing run ID is not an error.
	Delete(ctx context.Context, runID string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// NewRecord builds a storable record from a pipeline result.
func NewRecord(result *pipeline.Result, policy string) *Record {
	return &Record{
		RunID:      result.RunID,
		CreatedAt:  time.Now().UTC(),
		GraphHash:  result.GraphHash,
		Policy:     policy,
		NodeCount:  result.Stats.NodeCount,
		Partitions: fromPartitions(result.Partitions),
		Module:     graphio.FromModule(result.Module),
	}
}

func fromPartitions(parts []split.Partition) []PartitionRecord {
	out := make([]PartitionRecord, len(parts))
	for i, p := range parts {
		out[i] = PartitionRecord{
			Name:       p.Name,
			Members:    p.Members,
			Inputs:     p.Inputs,
			Outputs:    p.Outputs,
			DependsOn:  p.DependsOn,
			Dependents: p.Dependents,
		}
	}
	return out
}
