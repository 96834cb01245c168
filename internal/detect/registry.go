package detect

import "github.com/xadriann/stockwatch/internal/config"

// NewAll constructs the full detector battery in its declared evaluation
// order. The set is fixed at build time; changing thresholds means calling
// NewAll again and swapping the result in. classifier may be nil, which
// disables the sublocation rules.
func NewAll(cfg config.RulesConf, classifier SublocationClassifier) []Detector {
	return []Detector{
		NewDamagedInShipment(),
		NewPersistentDamagedReceiving(),
		NewReleasedOutsideExpectedStep(cfg.ReleaseSteps),
		NewDamagedNotObserved(cfg.ConsecutiveCountThreshold),
		NewHighVolumeDamaged(cfg.HighVolumeMultiplier, cfg.HighVolumeWindowHours),
		NewDamagedSoldAtPOS(),
		NewSalesFloorDisposition(classifier),
		NewStockroomDisposition(classifier),
		NewSoldReturnedDamaged(),
		NewDamagedWithoutStockMutation(cfg.StockMutationTimeoutMinutes),
		NewDoubleStockDeduction(),
		NewRetailSoldInCycleCount(),
	}
}
