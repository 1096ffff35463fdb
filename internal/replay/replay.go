// Package replay backfills ledger transactions from a JSON-lines export.
// Every record goes through the ledger service, so the wallet is reconciled
// exactly as for live traffic, and a record whose reference already exists is
// skipped. Running the same file twice changes nothing.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	apperrors "ajo/internal/errors"
	"ajo/internal/models"
	"ajo/internal/services/ledger"
)

// maxLineBytes bounds a single JSON record.
const maxLineBytes = 1 << 20

// Record is one line of the input.
type Record struct {
	OwnerID     string      `json:"owner_id"`
	Type        string      `json:"type"`
	AmountMinor int64       `json:"amount_minor"` // positive magnitude
	Reference   string      `json:"reference"`
	Status      string      `json:"status"`
	Metadata    models.JSON `json:"metadata"`
}

type Stats struct {
	Applied int
	Skipped int
	Failed  int
}

// Run replays every record in r. Malformed or rejected lines are counted and
// logged; only a read error or a store failure aborts the run.
func Run(ctx context.Context, svc ledger.Service, r io.Reader) (Stats, error) {
	var stats Stats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Printf("[replay] line %d: malformed record: %v", line, err)
			stats.Failed++
			continue
		}

		err := apply(ctx, svc, rec)
		switch {
		case err == nil:
			stats.Applied++
		case errors.Is(err, apperrors.ErrDuplicateReference):
			stats.Skipped++
		case apperrors.CodeOf(err) != "":
			log.Printf("[replay] line %d (%s): %v", line, rec.Reference, err)
			stats.Failed++
		default:
			return stats, fmt.Errorf("line %d (%s): %w", line, rec.Reference, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read input: %w", err)
	}
	return stats, nil
}

// apply creates the record in its final state. A failed record is created
// pending and then failed, the same path a failed withdrawal takes live.
func apply(ctx context.Context, svc ledger.Service, rec Record) error {
	req := ledger.CreateRequest{
		OwnerID:     rec.OwnerID,
		Type:        rec.Type,
		AmountMinor: rec.AmountMinor,
		Reference:   rec.Reference,
		Status:      rec.Status,
		Metadata:    rec.Metadata,
	}
	if rec.Status != models.TransactionStatusFailed {
		_, err := svc.Create(ctx, req)
		return err
	}

	req.Status = models.TransactionStatusPending
	if _, err := svc.Create(ctx, req); err != nil {
		return err
	}
	_, err := svc.Fail(ctx, rec.Reference, models.JSON{models.MetaFailureReason: "replayed"})
	return err
}
