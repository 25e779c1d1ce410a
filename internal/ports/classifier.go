package ports

import "github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"

// Classifier maps a record to a severity class. Implementations must be pure.
type Classifier interface {
	Classify(r domain.Record) domain.Severity
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(domain.Record) domain.Severity

func (f ClassifierFunc) Classify(r domain.Record) domain.Severity { return f(r) }
