package builtin

import (
	"colloquium/bots"
	"colloquium/services"
)

// Deps carries the collaborators the built-in bots are wired with
type Deps struct {
	Reviews    services.ReviewsService
	Users      UserDirectory
	References ReferenceSource
	Similarity SimilarityScanner
	// Analyzer is optional; a nil analyzer disables the plagiarism bot's
	// prose assessments.
	Analyzer ContentAnalyzer
}

// Source returns a plugin source serving all built-in bots
func Source(deps Deps) bots.PluginSource {
	return bots.NewStaticPluginSource(
		EditorialPlugin(),
		ChecklistPlugin(deps.Reviews, deps.Users),
		ReferencePlugin(deps.References),
		PlagiarismPlugin(deps.Similarity, deps.Analyzer),
	)
}
