package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colloquium/models"
	"colloquium/services/botregistry"
)

func testRegistry() *botregistry.BotRegistryService {
	registry := botregistry.NewBotRegistryService()
	registry.Register(&models.BotDefinition{
		ID:          "bot-editorial",
		Name:        "Editorial Bot",
		Version:     "1.0.0",
		Permissions: []string{models.PermissionMakeEditorialDecision},
		Commands: []models.CommandSpec{
			{
				Name:  "release",
				Usage: `@bot-editorial release decision=<accept|reject|revise>`,
				Parameters: []models.ParameterSpec{
					{
						Name:       "decision",
						Type:       models.ParameterTypeEnum,
						Required:   true,
						EnumValues: []string{"accept", "reject", "revise"},
					},
					{
						Name:         "comments",
						Type:         models.ParameterTypeString,
						DefaultValue: "",
					},
					{
						Name:         "notify",
						Type:         models.ParameterTypeBoolean,
						DefaultValue: true,
					},
				},
			},
			{
				Name: "remind",
				Parameters: []models.ParameterSpec{
					{
						Name:     "days",
						Type:     models.ParameterTypeNumber,
						Required: true,
					},
					{
						Name: "reviewers",
						Type: models.ParameterTypeArray,
					},
				},
			},
		},
	})
	return registry
}

func TestParser_ParseMessage(t *testing.T) {
	parser := NewParser()
	registry := testRegistry()

	t.Run("bare command populates defaults", func(t *testing.T) {
		// "decision" is required without a default, so a bare command is a
		// validation error; "remind" requires days. Use a command variant
		// with only defaulted params by supplying the required one.
		parsed, err := parser.ParseMessage(`@bot-editorial release decision=accept`, registry)
		require.NoError(t, err)
		require.NotNil(t, parsed)
		assert.False(t, parsed.IsUnrecognized)
		assert.Equal(t, "bot-editorial", parsed.BotID)
		assert.Equal(t, "release", parsed.Command)
		assert.Equal(t, "accept", parsed.Parameters["decision"])
		assert.Equal(t, "", parsed.Parameters["comments"])
		assert.Equal(t, true, parsed.Parameters["notify"])
	})

	t.Run("unknown bot is unrecognized", func(t *testing.T) {
		parsed, err := parser.ParseMessage("@bot-nonexistent anything", registry)
		require.NoError(t, err)
		require.NotNil(t, parsed)
		assert.True(t, parsed.IsUnrecognized)
		assert.Equal(t, "bot-nonexistent", parsed.BotID)
	})

	t.Run("unknown command on known bot is unrecognized", func(t *testing.T) {
		parsed, err := parser.ParseMessage("@bot-editorial frobnicate", registry)
		require.NoError(t, err)
		require.NotNil(t, parsed)
		assert.True(t, parsed.IsUnrecognized)
		assert.Equal(t, "frobnicate", parsed.Command)
	})

	t.Run("known bot with no command is unrecognized", func(t *testing.T) {
		parsed, err := parser.ParseMessage("@bot-editorial", registry)
		require.NoError(t, err)
		require.NotNil(t, parsed)
		assert.True(t, parsed.IsUnrecognized)
	})

	t.Run("no mention returns nil", func(t *testing.T) {
		parsed, err := parser.ParseMessage("just a plain message", registry)
		require.NoError(t, err)
		assert.Nil(t, parsed)
	})

	t.Run("quoted values preserve internal whitespace", func(t *testing.T) {
		parsed, err := parser.ParseMessage(
			`@bot-editorial release decision=revise comments="please expand section 3"`, registry)
		require.NoError(t, err)
		require.NotNil(t, parsed)
		assert.Equal(t, "please expand section 3", parsed.Parameters["comments"])
	})

	t.Run("missing required parameter is a validation error", func(t *testing.T) {
		_, err := parser.ParseMessage("@bot-editorial release", registry)
		require.Error(t, err)

		var validationErr *models.ParameterValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Contains(t, validationErr.Parameters, "decision")
	})

	t.Run("enum violation is a validation error naming the parameter", func(t *testing.T) {
		_, err := parser.ParseMessage("@bot-editorial release decision=maybe", registry)
		require.Error(t, err)

		var validationErr *models.ParameterValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Contains(t, validationErr.Parameters, "decision")
	})

	t.Run("number coercion", func(t *testing.T) {
		parsed, err := parser.ParseMessage("@bot-editorial remind days=7", registry)
		require.NoError(t, err)
		assert.Equal(t, float64(7), parsed.Parameters["days"])
	})

	t.Run("malformed number is a validation error", func(t *testing.T) {
		_, err := parser.ParseMessage("@bot-editorial remind days=soon", registry)
		var validationErr *models.ParameterValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Contains(t, validationErr.Parameters, "days")
	})

	t.Run("array values split on comma", func(t *testing.T) {
		parsed, err := parser.ParseMessage(
			`@bot-editorial remind days=3 reviewers="DrSmith, JSmith"`, registry)
		require.NoError(t, err)
		assert.Equal(t, []string{"DrSmith", "JSmith"}, parsed.Parameters["reviewers"])
	})

	t.Run("boolean coercion accepts spellings case-insensitively", func(t *testing.T) {
		for raw, expected := range map[string]bool{
			"true": true, "TRUE": true, "1": true, "yes": true,
			"false": false, "0": false, "No": false,
		} {
			parsed, err := parser.ParseMessage(
				fmt.Sprintf("@bot-editorial release decision=accept notify=%s", raw), registry)
			require.NoError(t, err, raw)
			assert.Equal(t, expected, parsed.Parameters["notify"], raw)
		}
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		parsed, err := parser.ParseMessage(
			"@bot-editorial release decision=accept shiny=new", registry)
		require.NoError(t, err)
		_, present := parsed.Parameters["shiny"]
		assert.False(t, present)
	})

	t.Run("duplicate key last occurrence wins", func(t *testing.T) {
		parsed, err := parser.ParseMessage(
			"@bot-editorial release decision=reject decision=accept", registry)
		require.NoError(t, err)
		assert.Equal(t, "accept", parsed.Parameters["decision"])
	})

	t.Run("raw text is preserved", func(t *testing.T) {
		raw := "@bot-editorial release decision=accept"
		parsed, err := parser.ParseMessage(raw, registry)
		require.NoError(t, err)
		assert.Equal(t, raw, parsed.RawText)
	})
}

func TestParser_RenderRoundTrip(t *testing.T) {
	parser := NewParser()
	registry := testRegistry()

	inputs := []string{
		`@bot-editorial release decision=revise comments="needs a rework of section 2" notify=no`,
		`@bot-editorial remind days=14 reviewers="DrSmith,JSmith"`,
		`@bot-editorial release decision=accept`,
	}

	for _, input := range inputs {
		parsed, err := parser.ParseMessage(input, registry)
		require.NoError(t, err, input)
		require.NotNil(t, parsed, input)

		rendered := parser.Render(parsed)
		reparsed, err := parser.ParseMessage(rendered, registry)
		require.NoError(t, err, rendered)
		require.NotNil(t, reparsed, rendered)

		assert.Equal(t, parsed.BotID, reparsed.BotID)
		assert.Equal(t, parsed.Command, reparsed.Command)
		assert.Equal(t, parsed.Parameters, reparsed.Parameters)
	}
}

func TestParser_AllRegisteredCommandsParseBare(t *testing.T) {
	// For every registered bot B and command C, "@B.id C.name" either parses
	// with defaults populated or fails validation listing only required
	// parameters lacking defaults.
	parser := NewParser()
	registry := testRegistry()

	for _, bot := range registry.ListBots() {
		for _, command := range bot.Commands {
			parsed, err := parser.ParseMessage(
				fmt.Sprintf("@%s %s", bot.ID, command.Name), registry)

			var requiredWithoutDefault []string
			for _, spec := range command.Parameters {
				if spec.Required && spec.DefaultValue == nil {
					requiredWithoutDefault = append(requiredWithoutDefault, spec.Name)
				}
			}

			if len(requiredWithoutDefault) > 0 {
				var validationErr *models.ParameterValidationError
				require.True(t, errors.As(err, &validationErr))
				assert.ElementsMatch(t, requiredWithoutDefault, validationErr.Parameters)
				continue
			}

			require.NoError(t, err)
			require.NotNil(t, parsed)
			assert.False(t, parsed.IsUnrecognized)
			for _, spec := range command.Parameters {
				if spec.DefaultValue != nil {
					assert.Equal(t, spec.DefaultValue, parsed.Parameters[spec.Name])
				}
			}
		}
	}
}
