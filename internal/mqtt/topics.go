package mqtt

import (
	"fmt"
	"strings"
)

// BaseTopic returns the base topic for a card
func BaseTopic(cardID string) string {
	return BuildCleanTopic("battery_state", cardID)
}

// ViewTopic carries the retained JSON view of the card
func ViewTopic(cardID string) string {
	return BaseTopic(cardID) + "/view"
}

// TapTopic receives entity ids to tap
func TapTopic(cardID string) string {
	return BaseTopic(cardID) + "/tap"
}

// AvailabilityTopic returns the availability topic for a card
func AvailabilityTopic(cardID string) string {
	return BaseTopic(cardID) + "/availability"
}

// DiscoveryTopic returns the Home Assistant discovery topic
func DiscoveryTopic(prefix, entityType, cardID, objectID string) string {
	node := strings.ReplaceAll(BuildCleanTopic(cardID), "/", "_")
	return fmt.Sprintf("%s/%s/battery_state_%s/%s/config", prefix, entityType, node, objectID)
}

// BuildCleanTopic ensures topic follows MQTT standards
func BuildCleanTopic(parts ...string) string {
	var cleanParts []string
	for _, part := range parts {
		clean := strings.ReplaceAll(part, " ", "_")
		clean = strings.ReplaceAll(clean, "+", "plus")
		clean = strings.ReplaceAll(clean, "#", "hash")
		clean = strings.ToLower(clean)
		cleanParts = append(cleanParts, clean)
	}
	return strings.Join(cleanParts, "/")
}
