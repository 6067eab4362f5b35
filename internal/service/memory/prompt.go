package memory

import (
	"fmt"
	"strings"
)

// Sentinels the language model uses to signal "nothing to do".
const (
	SentinelNoEntities = "NONE"
	SentinelUnchanged  = "UNCHANGED"
)

func buildExtractionPrompt(transcript, input string) string {
	return fmt.Sprintf(
		`Extract the proper nouns from the last line of the conversation below: people, places and notable concepts the speaker refers to. Return them as a single comma-separated line. If there are none, return the exact word %s.

Conversation history:
%s
Last line:
%s`,
		SentinelNoEntities, transcript, input,
	)
}

func buildSummarizationPrompt(summary, entityName, transcript, datetime, input string) string {
	return fmt.Sprintf(
		`You keep notes about %q. The current time is %s.

Existing notes:
%s

Based on the last line of the conversation below, update the notes with any new information about %q. Keep them concise and factual. If nothing about %q changed, return the exact word %s and nothing else.

Conversation history:
%s
Last line:
%s`,
		entityName, datetime, summary, entityName, entityName, SentinelUnchanged, transcript, input,
	)
}

// parseEntityList splits the extraction output into entity names. The NONE
// sentinel, blank output and empty items all yield an empty list.
func parseEntityList(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == SentinelNoEntities {
		return nil
	}
	parts := strings.Split(trimmed, ",")
	entities := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			entities = append(entities, name)
		}
	}
	return entities
}
