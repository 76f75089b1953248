package watchlist

import "crypto_dash/internal/domain"

// Reconcile returns the snapshots whose id is in ids, in snapshot order.
// Watched ids without a snapshot (e.g. outside the fetched page) are omitted.
// Inputs are not modified.
func Reconcile(snapshots []domain.Coin, ids []string) []domain.Coin {
	result := make([]domain.Coin, 0, len(ids))
	if len(ids) == 0 {
		return result
	}

	watched := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		watched[id] = struct{}{}
	}

	for _, coin := range snapshots {
		if _, ok := watched[coin.ID]; ok {
			result = append(result, coin)
		}
	}
	return result
}

// Missing returns the watched ids that have no snapshot, in watchlist order
func Missing(snapshots []domain.Coin, ids []string) []string {
	present := make(map[string]struct{}, len(snapshots))
	for _, coin := range snapshots {
		present[coin.ID] = struct{}{}
	}

	missing := make([]string, 0)
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
