// Package reward computes the proportional reward split for a question and
// applies it to the ledger and document registry.
package reward

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
	"github.com/kailas-cloud/talktoearn/internal/metrics"
)

// weightTolerance bounds acceptable floating point drift in the weight sum.
const weightTolerance = 1e-9

// Distributor splits a question's cost across the owners of the surviving
// passages, proportional to each document's mean similarity.
type Distributor struct {
	ledger   Ledger
	registry Registry
	suffixes []string
	logger   *zap.Logger
}

// NewDistributor creates a distributor. strippableSuffixes are synthetic
// document-id suffixes the fallback resolver may strip; nil defaults to
// "_test".
func NewDistributor(ledger Ledger, registry Registry, strippableSuffixes []string, logger *zap.Logger) *Distributor {
	if strippableSuffixes == nil {
		strippableSuffixes = []string{"_test"}
	}
	return &Distributor{
		ledger:   ledger,
		registry: registry,
		suffixes: strippableSuffixes,
		logger:   logger,
	}
}

// Plan groups passages by document and computes each document's weight and
// reward amount. Documents keep first-seen order so the split is
// deterministic. A zero total similarity yields an empty plan.
func (d *Distributor) Plan(kept []domain.ScoredPassage, totalCost float64) []domain.RewardEntry {
	type group struct {
		ownerID string
		sum     float64
		count   int
	}
	groups := make(map[string]*group)
	order := make([]string, 0, len(kept))

	for _, sp := range kept {
		g, ok := groups[sp.DocumentID]
		if !ok {
			g = &group{ownerID: sp.OwnerID}
			groups[sp.DocumentID] = g
			order = append(order, sp.DocumentID)
		}
		g.sum += sp.RelevanceScore
		g.count++
	}

	var totalSimilarity float64
	for _, g := range groups {
		totalSimilarity += g.sum / float64(g.count)
	}
	if totalSimilarity <= 0 {
		return nil
	}

	entries := make([]domain.RewardEntry, 0, len(order))
	for _, docID := range order {
		g := groups[docID]
		mean := g.sum / float64(g.count)
		weight := mean / totalSimilarity
		entries = append(entries, domain.RewardEntry{
			OwnerID:    g.ownerID,
			DocumentID: docID,
			Weight:     weight,
			Similarity: mean,
			Amount:     weight * totalCost,
		})
	}
	return entries
}

// Distribute plans the split and pays each resolved document's owner: one
// reward credit, one zero-amount reference transaction and a registry stat
// bump. Failures are per-document; entries already paid stay paid.
// Returns the entries that were actually paid out.
func (d *Distributor) Distribute(ctx context.Context, questionText string, kept []domain.ScoredPassage, totalCost float64) ([]domain.RewardEntry, error) {
	entries := d.Plan(kept, totalCost)
	if len(entries) == 0 {
		return nil, nil
	}

	var weightSum float64
	for _, e := range entries {
		weightSum += e.Weight
	}
	if math.Abs(weightSum-1.0) > weightTolerance {
		return nil, domain.NewConsistencyViolation(
			fmt.Sprintf("reward weight sum %.12f outside tolerance", weightSum))
	}

	paid := make([]domain.RewardEntry, 0, len(entries))
	for _, entry := range entries {
		stat, err := d.resolve(ctx, entry.DocumentID)
		if err != nil {
			metrics.RewardsDistributedTotal.WithLabelValues("unresolved").Inc()
			d.logger.Warn("skipping reward for unresolved document",
				zap.String("document_id", entry.DocumentID),
				zap.Error(err))
			continue
		}

		if err := d.pay(ctx, entry, stat, questionText); err != nil {
			metrics.RewardsDistributedTotal.WithLabelValues("error").Inc()
			d.logger.Error("reward payout failed",
				zap.String("document_id", stat.DocumentID),
				zap.String("owner_id", stat.OwnerID),
				zap.Float64("amount", entry.Amount),
				zap.Error(err))
			continue
		}

		metrics.RewardsDistributedTotal.WithLabelValues("paid").Inc()
		metrics.RewardAmountTotal.Add(entry.Amount)
		entry.OwnerID = stat.OwnerID
		entry.DocumentID = stat.DocumentID
		paid = append(paid, entry)
	}
	return paid, nil
}

func (d *Distributor) pay(ctx context.Context, entry domain.RewardEntry, stat domain.DocumentStat, questionText string) error {
	if err := d.ledger.Reward(ctx, stat.OwnerID, entry.Amount, stat.DocumentID, questionText); err != nil {
		return fmt.Errorf("reward: %w", err)
	}
	if err := d.ledger.Reference(ctx, stat.OwnerID, stat.DocumentID, questionText); err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	if err := d.registry.AddReference(ctx, stat.DocumentID, entry.Amount); err != nil {
		return fmt.Errorf("registry stat: %w", err)
	}
	return nil
}

// resolve maps a passage's document id to a registry record: exact lookup
// first, then suffix stripping, then substring containment against the
// registry listing. Fallbacks cover synthetic ids attached during ingestion.
func (d *Distributor) resolve(ctx context.Context, documentID string) (domain.DocumentStat, error) {
	stat, err := d.registry.GetDocument(ctx, documentID)
	if err == nil {
		return stat, nil
	}
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		return domain.DocumentStat{}, err
	}

	for _, suffix := range d.suffixes {
		if stripped, ok := strings.CutSuffix(documentID, suffix); ok {
			if stat, err := d.registry.GetDocument(ctx, stripped); err == nil {
				d.logger.Debug("resolved document by suffix strip",
					zap.String("document_id", documentID),
					zap.String("resolved_id", stripped))
				return stat, nil
			}
		}
	}

	all, err := d.registry.ListDocuments(ctx)
	if err != nil {
		return domain.DocumentStat{}, err
	}
	for _, candidate := range all {
		if strings.Contains(candidate.DocumentID, documentID) || strings.Contains(documentID, candidate.DocumentID) {
			d.logger.Debug("resolved document by containment",
				zap.String("document_id", documentID),
				zap.String("resolved_id", candidate.DocumentID))
			return candidate, nil
		}
	}

	return domain.DocumentStat{}, fmt.Errorf("document %s: %w", documentID, domain.ErrResolution)
}
