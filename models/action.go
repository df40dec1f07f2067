package models

// BotActionType tags the variant of a structured side-effect request
type BotActionType string

const (
	ActionAssignReviewer         BotActionType = "ASSIGN_REVIEWER"
	ActionUpdateManuscriptStatus BotActionType = "UPDATE_MANUSCRIPT_STATUS"
	ActionCreateConversation     BotActionType = "CREATE_CONVERSATION"
	ActionRespondToReview        BotActionType = "RESPOND_TO_REVIEW"
	ActionSubmitReview           BotActionType = "SUBMIT_REVIEW"
	ActionMakeEditorialDecision  BotActionType = "MAKE_EDITORIAL_DECISION"
	ActionAssignActionEditor     BotActionType = "ASSIGN_ACTION_EDITOR"
	ActionExecutePublicationFlow BotActionType = "EXECUTE_PUBLICATION_WORKFLOW"
)

// BotAction is a typed side-effect request produced by a bot command result.
// Bots emit actions as data; they never mutate persistent state directly.
// The Data payload shape is variant-specific, e.g. ASSIGN_REVIEWER carries
// reviewer_id and an optional due_date.
type BotAction struct {
	Type BotActionType  `json:"type"`
	Data map[string]any `json:"data"`
}

// ActionContext carries the identities an action batch is applied under
type ActionContext struct {
	ManuscriptID   string
	ConversationID string
	// UserID is the acting-as identity for audit; for mention-triggered
	// invocations it is the mentioning user.
	UserID string
	// BotID identifies which bot produced the batch, for per-action
	// failure reporting.
	BotID string
}

// ActionFailure reports one failed action within a batch. Failures never
// abort the batch - processing is best effort across all actions.
type ActionFailure struct {
	Index  int           `json:"index"`
	Type   BotActionType `json:"type"`
	Reason string        `json:"reason"`
}
