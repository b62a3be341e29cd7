// Package orchestrator fans prompts out to LLM providers and multiplexes
// their partial outputs into a single ordered event feed.
package orchestrator

import (
	"time"
)

// EventType identifies the kind of orchestrator event.
type EventType string

const (
	// EventConnected is sent once to each new event consumer.
	EventConnected EventType = "connected"
	// EventMessageReceived acknowledges an inbound prompt.
	EventMessageReceived EventType = "message_received"
	// EventAgentStarted indicates a provider began working on a prompt.
	EventAgentStarted EventType = "agent_started"
	// EventAgentChunk carries an incremental piece of a provider's answer.
	EventAgentChunk EventType = "agent_chunk"
	// EventAgentCompleted carries a provider's full answer.
	EventAgentCompleted EventType = "agent_completed"
	// EventAgentError indicates a provider failed.
	EventAgentError EventType = "agent_error"
	// EventTriLamStarted indicates a parallel fan-out began.
	EventTriLamStarted EventType = "trilam_started"
	// EventTriLamCompleted indicates a parallel fan-out finished.
	EventTriLamCompleted EventType = "trilam_completed"
	// EventCoordinationStarted indicates a coordination strategy began.
	EventCoordinationStarted EventType = "coordination_started"
	// EventCoordinationCompleted indicates a coordination strategy finished.
	EventCoordinationCompleted EventType = "coordination_completed"
	// EventPhaseChanged indicates a build pipeline phase transition.
	EventPhaseChanged EventType = "phase_changed"
	// EventBuildStarted indicates the build pipeline began.
	EventBuildStarted EventType = "build_started"
	// EventBuildCompleted indicates the build pipeline finished.
	EventBuildCompleted EventType = "build_completed"
	// EventDeploymentOptions carries the selectable deployment targets.
	EventDeploymentOptions EventType = "deployment_options"
	// EventDeploymentStarted indicates a deployment began.
	EventDeploymentStarted EventType = "deployment_started"
	// EventDeploymentCompleted indicates a deployment finished or was skipped.
	EventDeploymentCompleted EventType = "deployment_completed"
	// EventStatusMessage carries free-form progress text.
	EventStatusMessage EventType = "status_message"
)

// DeploymentOption is one selectable deployment target presented to the user.
type DeploymentOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Event is one entry in the multiplexed feed. Fields are sparse; each event
// type populates the subset that applies to it.
type Event struct {
	Type EventType `json:"type"`
	// Agent is the internal provider identifier, when the event concerns one.
	Agent string `json:"agent,omitempty"`
	// AgentDisplay is the provider's human-readable name.
	AgentDisplay string `json:"agent_display,omitempty"`
	// Content carries answer text: a chunk for agent_chunk, the full answer
	// for agent_completed and coordination_completed.
	Content string `json:"content,omitempty"`
	// Message carries status text.
	Message string `json:"message,omitempty"`
	// Error describes a failure.
	Error string `json:"error,omitempty"`
	// Mode is the coordination strategy in play, when relevant.
	Mode string `json:"mode,omitempty"`
	// Phase is the build pipeline phase, when relevant.
	Phase string `json:"phase,omitempty"`
	// Options lists selectable deployment targets for deployment_options.
	Options []DeploymentOption `json:"options,omitempty"`
	// Target is the chosen deployment target, when relevant.
	Target string `json:"target,omitempty"`
	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`
}
