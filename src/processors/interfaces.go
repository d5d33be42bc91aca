package processors

import (
	"github.com/username/perfsnap/src/models"
)

// Classifier routes a raw row to its destination table and derives its natural key.
type Classifier interface {
	Classify(row models.PerformanceRow) ClassifiedRow
	// ClassifyAll classifies rows in input order, grouped by destination,
	// with Index set to each row's input position.
	ClassifyAll(rows []models.PerformanceRow) map[models.Destination][]ClassifiedRow
}

// RowReconciler collapses classified rows bound for one table into persistable records.
type RowReconciler interface {
	Reconcile(rows []ClassifiedRow) DedupResult
}
