package models

import (
	"context"
)

// Capability strings a bot may declare and a command may require
const (
	PermissionReadManuscript        = "read_manuscript"
	PermissionReadFiles             = "read_files"
	PermissionAssignReviewers       = "assign_reviewers"
	PermissionManageConversations   = "manage_conversations"
	PermissionSubmitReviews         = "submit_reviews"
	PermissionUpdateStatus          = "update_manuscript_status"
	PermissionMakeEditorialDecision = "make_editorial_decision"
	PermissionAssignActionEditor    = "assign_action_editor"
	PermissionRunWorkflows          = "run_publication_workflows"
)

// TriggerKind identifies how a bot invocation was initiated
type TriggerKind string

const (
	TriggerMention             TriggerKind = "mention"
	TriggerKeyword             TriggerKind = "keyword"
	TriggerManuscriptSubmitted TriggerKind = "manuscript_submitted"
	TriggerReviewComplete      TriggerKind = "review_complete"
	TriggerReviewerAssigned    TriggerKind = "reviewer_assigned"
	TriggerScheduled           TriggerKind = "scheduled"
)

// EventTriggers maps event bus names to the trigger kind bots declare.
// A bot handling one of these events must declare the matching trigger;
// the plugin loader enforces this.
var EventTriggers = map[string]TriggerKind{
	"MANUSCRIPT_SUBMITTED": TriggerManuscriptSubmitted,
	"REVIEW_COMPLETE":      TriggerReviewComplete,
	"REVIEWER_ASSIGNED":    TriggerReviewerAssigned,
	"SCHEDULED_RUN":        TriggerScheduled,
}

// ParameterType is the declared type of a command parameter
type ParameterType string

const (
	ParameterTypeString  ParameterType = "string"
	ParameterTypeNumber  ParameterType = "number"
	ParameterTypeBoolean ParameterType = "boolean"
	ParameterTypeArray   ParameterType = "array"
	ParameterTypeEnum    ParameterType = "enum"
)

// ParameterSpec declares one parameter of a bot command
type ParameterSpec struct {
	Name         string
	Type         ParameterType
	Description  string
	Required     bool
	DefaultValue any
	EnumValues   []string
	Examples     []string
	// Validate, when set, runs after type coercion. A returned error is
	// reported as a validation failure for this parameter.
	Validate func(value any) error
}

// CommandHandler executes one bot command. Params have been coerced and
// defaulted against the command's ParameterSpec list before invocation.
type CommandHandler func(ctx context.Context, params map[string]any, ec *BotExecutionContext) (*BotResult, error)

// EventHandler reacts to a system-triggered event delivered to the bot
type EventHandler func(ctx context.Context, payload map[string]any, ec *BotExecutionContext) (*BotResult, error)

// CommandSpec declares one named command a bot exposes
type CommandSpec struct {
	Name        string
	Description string
	Usage       string
	Parameters  []ParameterSpec
	Examples    []string
	// Permissions must be a subset of the owning bot's declared
	// permissions; the plugin loader rejects violations.
	Permissions []string
	Execute     CommandHandler
}

// BotDefinition is the immutable, load-time description of a bot. A reload
// replaces the whole record; fields are never mutated in place.
type BotDefinition struct {
	ID                  string
	Name                string
	Description         string
	Version             string
	Commands            []CommandSpec
	Permissions         []string
	SupportsFileUploads bool
	Triggers            []TriggerKind
	EventHandlers       map[string]EventHandler
}

// Command returns the command with the given name, if declared
func (b *BotDefinition) Command(name string) (*CommandSpec, bool) {
	for i := range b.Commands {
		if b.Commands[i].Name == name {
			return &b.Commands[i], true
		}
	}
	return nil, false
}

// HasPermission reports whether the bot declares the given capability
func (b *BotDefinition) HasPermission(permission string) bool {
	for _, p := range b.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// SubscribesTo reports whether the bot declares the given trigger
func (b *BotDefinition) SubscribesTo(trigger TriggerKind) bool {
	for _, t := range b.Triggers {
		if t == trigger {
			return true
		}
	}
	return false
}

// TriggeredBy identifies who or what initiated an invocation
type TriggeredBy struct {
	MessageID string
	UserID    string
	UserRole  UserRole
	Trigger   TriggerKind
}

// BotExecutionContext is assembled per invocation and never persisted
type BotExecutionContext struct {
	ManuscriptID   string
	ConversationID string
	TriggeredBy    TriggeredBy
	Journal        *Journal
	// Config is the invoking installation's current config snapshot
	Config JSONMap
	// ServiceToken is a scoped credential minted for this single
	// invocation; it authenticates the bot's own outbound API calls.
	ServiceToken string
}

// BotMessage is one conversational reply emitted by a bot
type BotMessage struct {
	Content     string   `json:"content"`
	ReplyTo     string   `json:"reply_to,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
	Metadata    JSONMap  `json:"metadata,omitempty"`
}

// BotResult is the uniform response envelope every invocation terminates in.
// Handler errors and panics are normalized into Errors by the executor, so
// callers never branch on "did it throw vs. did it return errors".
type BotResult struct {
	Messages []BotMessage `json:"messages"`
	Actions  []BotAction  `json:"actions"`
	Errors   []string     `json:"errors"`
}

// IsSoftFailure reports a result with errors but no messages or actions
func (r *BotResult) IsSoftFailure() bool {
	return len(r.Errors) > 0 && len(r.Messages) == 0 && len(r.Actions) == 0
}
