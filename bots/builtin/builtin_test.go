package builtin

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"colloquium/models"
	"colloquium/services"
)

type fakeUserDirectory struct {
	users map[string]*models.User
}

func (f *fakeUserDirectory) GetUserByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return user, nil
}

type fakeReferenceSource struct {
	references []string
}

func (f *fakeReferenceSource) ListReferences(_ context.Context, _, _ string) ([]string, error) {
	return f.references, nil
}

type fakeSimilarityScanner struct {
	matches []SimilarityMatch
}

func (f *fakeSimilarityScanner) ScanManuscript(_ context.Context, _ string) ([]SimilarityMatch, error) {
	return f.matches, nil
}

func execContext() *models.BotExecutionContext {
	return &models.BotExecutionContext{
		ManuscriptID:   "ms_1",
		ConversationID: "conv_1",
		TriggeredBy:    models.TriggeredBy{UserID: "u_editor", UserRole: models.UserRoleChiefEditor, Trigger: models.TriggerMention},
	}
}

func TestEditorialRelease(t *testing.T) {
	plugin := EditorialPlugin()
	cmd, ok := plugin.Bot.Command("release")
	require.True(t, ok)

	t.Run("revise emits conversation before decision", func(t *testing.T) {
		result, err := cmd.Execute(context.Background(), map[string]any{"decision": "revise", "comments": "tighten section 3"}, execContext())
		require.NoError(t, err)

		require.Len(t, result.Actions, 2)
		assert.Equal(t, models.ActionCreateConversation, result.Actions[0].Type)
		assert.Equal(t, models.ActionMakeEditorialDecision, result.Actions[1].Type)
		assert.Equal(t, "revise", result.Actions[1].Data["outcome"])
		assert.Equal(t, "tighten section 3", result.Actions[1].Data["comments"])
		require.Len(t, result.Messages, 1)
	})

	t.Run("accept emits a single decision action", func(t *testing.T) {
		result, err := cmd.Execute(context.Background(), map[string]any{"decision": "accept", "comments": ""}, execContext())
		require.NoError(t, err)

		require.Len(t, result.Actions, 1)
		assert.Equal(t, models.ActionMakeEditorialDecision, result.Actions[0].Type)
		assert.Equal(t, "accept", result.Actions[0].Data["outcome"])
	})
}

func TestEditorialAssignStripsHandlePrefix(t *testing.T) {
	plugin := EditorialPlugin()
	cmd, ok := plugin.Bot.Command("assign")
	require.True(t, ok)

	result, err := cmd.Execute(context.Background(), map[string]any{"editor": "@DrJones"}, execContext())
	require.NoError(t, err)

	require.Len(t, result.Actions, 1)
	assert.Equal(t, models.ActionAssignActionEditor, result.Actions[0].Type)
	assert.Equal(t, "DrJones", result.Actions[0].Data["editor_id"])
}

func TestChecklistGenerate(t *testing.T) {
	reviewsService := new(services.MockReviewsService)
	reviewsService.On("ListAssignments", mock.Anything, "ms_1").Return([]*models.ReviewerAssignment{
		{ID: "ra_smith", ManuscriptID: "ms_1", ReviewerID: "u_smith"},
		{ID: "ra_jsmith", ManuscriptID: "ms_1", ReviewerID: "u_jsmith"},
	}, nil)

	users := &fakeUserDirectory{users: map[string]*models.User{
		"u_smith":  {ID: "u_smith", Handle: "DrSmith"},
		"u_jsmith": {ID: "u_jsmith", Handle: "JSmith"},
	}}

	plugin := ChecklistPlugin(reviewsService, users)
	cmd, ok := plugin.Bot.Command("generate")
	require.True(t, ok)

	t.Run("matches exactly one assignment", func(t *testing.T) {
		result, err := cmd.Execute(context.Background(), map[string]any{"reviewer": "@DrSmith"}, execContext())
		require.NoError(t, err)

		require.Len(t, result.Messages, 1)
		assert.Empty(t, result.Actions)
		assert.Equal(t, "ra_smith", result.Messages[0].Metadata["assignment_id"])
		assert.Contains(t, result.Messages[0].Content, "@DrSmith")
	})

	t.Run("unknown reviewer yields explanatory message", func(t *testing.T) {
		result, err := cmd.Execute(context.Background(), map[string]any{"reviewer": "@Nobody"}, execContext())
		require.NoError(t, err)

		require.Len(t, result.Messages, 1)
		assert.Empty(t, result.Actions)
		assert.Contains(t, result.Messages[0].Content, "No reviewer assignment")
	})
}

func TestReferenceValidate(t *testing.T) {
	source := &fakeReferenceSource{references: []string{
		"Doe, J. (2021). On things. Journal of Stuff. https://doi.org/10.1234/jstuff.2021.42",
		"Roe, R. (2019). Other things. Some Conference.",
	}}

	plugin := ReferencePlugin(source)
	cmd, ok := plugin.Bot.Command("validate")
	require.True(t, ok)

	result, err := cmd.Execute(context.Background(), map[string]any{}, execContext())
	require.NoError(t, err)

	require.Len(t, result.Messages, 1)
	assert.Empty(t, result.Actions)
	assert.Equal(t, 2, result.Messages[0].Metadata["reference_count"])
	assert.Equal(t, 1, result.Messages[0].Metadata["missing_doi"])
	assert.Contains(t, result.Messages[0].Content, "Roe, R.")
}

func TestPlagiarismScan(t *testing.T) {
	scanner := &fakeSimilarityScanner{matches: []SimilarityMatch{
		{Source: "doi.org/10.1/a", Score: decimal.NewFromFloat(0.72)},
		{Source: "doi.org/10.1/b", Score: decimal.NewFromFloat(0.15)},
	}}

	plugin := PlagiarismPlugin(scanner, nil)
	cmd, ok := plugin.Bot.Command("scan")
	require.True(t, ok)

	result, err := cmd.Execute(context.Background(), map[string]any{"threshold": 0.5}, execContext())
	require.NoError(t, err)

	require.Len(t, result.Messages, 1)
	assert.Equal(t, 2, result.Messages[0].Metadata["sources_scanned"])
	assert.Equal(t, 1, result.Messages[0].Metadata["sources_flagged"])
	assert.Contains(t, result.Messages[0].Content, "doi.org/10.1/a")
	assert.NotContains(t, result.Messages[0].Content, "doi.org/10.1/b (")
}

func TestTruncateCutsOnRuneBoundaries(t *testing.T) {
	assert.Equal(t, "short entry", truncate("short entry", 120))

	// a reference list full of accented author names must not be cut
	// mid-rune
	s := strings.Repeat("é", 80)
	out := truncate(s, 121)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("é", 60)+"…", out)
}
