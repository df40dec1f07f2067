package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"colloquium/models"
	"colloquium/services"
	"colloquium/utils"
)

// Parser turns bot-addressed message text into a ParsedCommand. It is pure
// and stateless aside from reading the immutable registry snapshot passed in.
//
// Grammar: @botId command key="value with spaces" key2=bareValue
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseMessage parses the first bot mention in rawText. It returns:
//   - (nil, nil) when the text contains no mention at all
//   - a ParsedCommand with IsUnrecognized=true when the addressed bot or
//     command name does not resolve (so the caller can answer "no such bot"
//     instead of silently dropping input)
//   - (nil, *models.ParameterValidationError) when the command is recognized
//     but supplied parameters are missing or malformed
func (p *Parser) ParseMessage(
	rawText string,
	registry services.BotRegistryService,
) (*models.ParsedCommand, error) {
	tokens := utils.ExtractMentionTokens(rawText)
	if len(tokens) == 0 {
		return nil, nil
	}

	mention := tokens[0]
	botID := mention.Name

	maybeBot := registry.GetBot(botID)
	if !maybeBot.IsPresent() {
		return &models.ParsedCommand{
			BotID:          botID,
			RawText:        rawText,
			IsUnrecognized: true,
		}, nil
	}
	bot := maybeBot.MustGet()

	fields := splitFields(rawText[mention.End:])
	if len(fields) == 0 {
		// Addressed a known bot with no command at all
		return &models.ParsedCommand{
			BotID:          botID,
			RawText:        rawText,
			IsUnrecognized: true,
		}, nil
	}

	commandName := fields[0]
	command, ok := bot.Command(commandName)
	if !ok {
		return &models.ParsedCommand{
			BotID:          botID,
			Command:        commandName,
			RawText:        rawText,
			IsUnrecognized: true,
		}, nil
	}

	supplied := make(map[string]string)
	for _, field := range fields[1:] {
		key, value, found := strings.Cut(field, "=")
		if !found || key == "" {
			continue
		}
		// Duplicate keys: last occurrence wins
		supplied[key] = unquote(value)
	}

	parameters := make(map[string]any)
	var invalidNames []string
	var reasons []string

	for i := range command.Parameters {
		spec := &command.Parameters[i]

		raw, present := supplied[spec.Name]
		if !present {
			if spec.DefaultValue != nil {
				parameters[spec.Name] = spec.DefaultValue
			} else if spec.Required {
				invalidNames = append(invalidNames, spec.Name)
				reasons = append(reasons, fmt.Sprintf("%s is required", spec.Name))
			}
			continue
		}

		value, err := coerceValue(raw, spec)
		if err != nil {
			invalidNames = append(invalidNames, spec.Name)
			reasons = append(reasons, err.Error())
			continue
		}
		if spec.Validate != nil {
			if err := spec.Validate(value); err != nil {
				invalidNames = append(invalidNames, spec.Name)
				reasons = append(reasons, fmt.Sprintf("%s: %v", spec.Name, err))
				continue
			}
		}
		parameters[spec.Name] = value
	}
	// Supplied keys matching no ParameterSpec are ignored (forward-compatible)

	if len(invalidNames) > 0 {
		return nil, &models.ParameterValidationError{
			BotID:      botID,
			Command:    commandName,
			Parameters: invalidNames,
			Reasons:    reasons,
		}
	}

	return &models.ParsedCommand{
		BotID:      botID,
		Command:    commandName,
		Parameters: parameters,
		RawText:    rawText,
	}, nil
}

// Render formats a ParsedCommand back into mention syntax for audit logs.
// Re-parsing the rendered text yields an equivalent ParsedCommand.
func (p *Parser) Render(parsed *models.ParsedCommand) string {
	var b strings.Builder
	b.WriteString("@" + parsed.BotID)
	if parsed.Command != "" {
		b.WriteString(" " + parsed.Command)
	}

	keys := make([]string, 0, len(parsed.Parameters))
	for key := range parsed.Parameters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		b.WriteString(fmt.Sprintf(" %s=%s", key, renderValue(parsed.Parameters[key])))
	}
	return b.String()
}

func coerceValue(raw string, spec *models.ParameterSpec) (any, error) {
	switch spec.Type {
	case models.ParameterTypeString:
		return raw, nil

	case models.ParameterTypeNumber:
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number, got %q", spec.Name, raw)
		}
		return parsed, nil

	case models.ParameterTypeBoolean:
		switch strings.ToLower(raw) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return nil, fmt.Errorf("%s must be a boolean, got %q", spec.Name, raw)

	case models.ParameterTypeEnum:
		for _, allowed := range spec.EnumValues {
			if raw == allowed {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("%s must be one of [%s], got %q",
			spec.Name, strings.Join(spec.EnumValues, ", "), raw)

	case models.ParameterTypeArray:
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		return values, nil

	default:
		return nil, fmt.Errorf("%s has unsupported type %q", spec.Name, spec.Type)
	}
}

func renderValue(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []string:
		return strconv.Quote(strings.Join(v, ","))
	default:
		return strconv.Quote(fmt.Sprintf("%v", v))
	}
}

// splitFields splits command text on whitespace, keeping quoted spans
// (including the quotes) intact so key="a b c" stays one field.
func splitFields(text string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range text {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if current.Len() > 0 {
				fields = append(fields, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		fields = append(fields, current.String())
	}
	return fields
}

func unquote(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return value
}
