package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is the namespace used when none is configured.
const DefaultTopicPrefix = "tracker"

// Topics builds Tracker MQTT topics under a configurable prefix.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.NewTopics("tracker")
//	topics.DeviceLocation("phone-1")
//	// Returns: "tracker/device/phone-1/location"
type Topics struct {
	prefix string
}

// NewTopics returns builders rooted at prefix. Surrounding slashes are trimmed
// and an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic namespace.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// DeviceLocation returns the topic a device publishes location payloads on.
//
// Example: tracker/device/phone-1/location
func (t Topics) DeviceLocation(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/location", t.Prefix(), deviceID)
}

// AllDeviceLocations returns a pattern matching every device location topic.
//
// Pattern: tracker/device/+/location
func (t Topics) AllDeviceLocations() string {
	return fmt.Sprintf("%s/device/+/location", t.Prefix())
}

// FixRecorded returns the topic announcing stored fixes.
//
// Example: tracker/fix/recorded
func (t Topics) FixRecorded() string {
	return fmt.Sprintf("%s/fix/recorded", t.Prefix())
}

// Visits returns the retained topic carrying a day's classification.
//
// Example: tracker/visits/2024-06-01
func (t Topics) Visits(date string) string {
	return fmt.Sprintf("%s/visits/%s", t.Prefix(), date)
}

// SystemStatus returns the online/offline status topic.
//
// Example: tracker/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.Prefix())
}

// DeviceFromTopic extracts the device id from a DeviceLocation topic.
// It returns false for topics of any other shape.
func (t Topics) DeviceFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix()+"/device/")
	if !ok {
		return "", false
	}
	device, ok := strings.CutSuffix(rest, "/location")
	if !ok || device == "" || strings.Contains(device, "/") {
		return "", false
	}
	return device, true
}
