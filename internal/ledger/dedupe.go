package ledger

import (
	"github.com/mfiops/collection-ledger/internal/domain"
)

// DedupeCandidates removes duplicate raw rows, keeping the first occurrence
// in input order. Identity is referenceNo|paymentDate|amount.
func DedupeCandidates(rows []domain.RawCollectionCandidate) ([]domain.RawCollectionCandidate, int) {
	seen := make(map[string]struct{}, len(rows))
	unique := make([]domain.RawCollectionCandidate, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		key := row.Identity()
		if _, ok := seen[key]; ok {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, row)
	}
	return unique, dropped
}

// DedupeRecords removes duplicate collection records, keeping first-seen
// order. Records with explicit ids are identified by id; otherwise the
// composite key applies, exactly as for raw candidates.
func DedupeRecords(records []*domain.CollectionRecord) []*domain.CollectionRecord {
	seen := make(map[string]struct{}, len(records))
	unique := make([]*domain.CollectionRecord, 0, len(records))
	for _, record := range records {
		key := record.Identity()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, record)
	}
	return unique
}

// ConflictingIdentities returns, in input order, the identities of rows
// whose composite key is already present in committed. Used by the import
// pipeline's pre-commit check; the same rule the preview applied.
func ConflictingIdentities(rows []domain.RawCollectionCandidate, committed []*domain.CollectionRecord) []string {
	existing := make(map[string]struct{}, len(committed))
	for _, record := range committed {
		existing[domain.CompositeIdentity(record.ReferenceNo, record.PaymentDate, record.Amount)] = struct{}{}
	}

	var conflicts []string
	for _, row := range rows {
		if _, ok := existing[row.Identity()]; ok {
			conflicts = append(conflicts, row.Identity())
		}
	}
	return conflicts
}
