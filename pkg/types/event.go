package types

import "time"

// EventType names an engine event.
type EventType string

// Engine event types.
const (
	EventSchemaDefined        EventType = "schema.defined"
	EventSchemaUpdated        EventType = "schema.updated"
	EventSchemaDeprecated     EventType = "schema.deprecated"
	EventDataSubmitted        EventType = "data.submitted"
	EventDataInvalidated      EventType = "data.invalidated"
	EventRoleAdded            EventType = "role.added"
	EventRoleRemoved          EventType = "role.removed"
	EventOwnershipTransferred EventType = "role.ownership_transferred"
	EventTextRecordSet        EventType = "schema.text_record_set"
	EventReservedWordAdded    EventType = "reserved.added"
	EventReservedWordRemoved  EventType = "reserved.removed"
	EventAutoUpdateConfigured EventType = "autoupdate.configured"
	EventAutoUpdateReported   EventType = "autoupdate.reported"
	EventAutoUpdateTriggered  EventType = "autoupdate.triggered"
)

// EventTypes lists every event type the engine emits.
var EventTypes = []EventType{
	EventSchemaDefined,
	EventSchemaUpdated,
	EventSchemaDeprecated,
	EventDataSubmitted,
	EventDataInvalidated,
	EventRoleAdded,
	EventRoleRemoved,
	EventOwnershipTransferred,
	EventTextRecordSet,
	EventReservedWordAdded,
	EventReservedWordRemoved,
	EventAutoUpdateConfigured,
	EventAutoUpdateReported,
	EventAutoUpdateTriggered,
}

// Event records a committed mutation. Only the fields relevant to Type are
// set. Keep it transport-agnostic so sinks can fan out.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Actor       string    `json:"actor"`
	Name        string    `json:"name,omitempty"`
	Tier        Priority  `json:"tier,omitempty"`
	Category    string    `json:"category,omitempty"`
	Version     string    `json:"version,omitempty"`
	OldVersion  string    `json:"old_version,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Key         string    `json:"key,omitempty"`
	Role        string    `json:"role,omitempty"`
	Subject     string    `json:"subject,omitempty"`
}
