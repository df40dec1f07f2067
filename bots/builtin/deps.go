// Package builtin ships the bots that install with every journal deployment.
// Each bot is a plugin like any third-party one; nothing here gets special
// treatment from the loader or the executor.
package builtin

import (
	"context"

	"github.com/shopspring/decimal"

	"colloquium/models"
)

// UserDirectory resolves user records for bots that need to map reviewer ids
// to handles
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// ReferenceSource fetches a manuscript's reference list. Implementations call
// back into the platform API, so the per-invocation service token travels
// with the request.
type ReferenceSource interface {
	ListReferences(ctx context.Context, manuscriptID, serviceToken string) ([]string, error)
}

// SimilarityMatch is one overlapping source found by a plagiarism scan
type SimilarityMatch struct {
	Source string
	Score  decimal.Decimal
}

// SimilarityScanner produces similarity matches for a manuscript
type SimilarityScanner interface {
	ScanManuscript(ctx context.Context, manuscriptID string) ([]SimilarityMatch, error)
}

// ContentAnalyzer produces a prose assessment of similarity findings. The
// plagiarism bot treats it as optional; a nil analyzer just skips the
// assessment paragraph.
type ContentAnalyzer interface {
	AssessOverlap(ctx context.Context, manuscriptTitle string, matches []SimilarityMatch) (string, error)
}
