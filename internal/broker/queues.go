/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package broker

// Queue names, matching the defaults of §6. They are fixed constants: no
// flag or environment variable overrides them. Each is a distinct logical
// queue and carries exactly one message type.
const (
	QueueMatchCreate      = "match-create-request"
	QueueMatchCreated     = "match-created"
	QueueMatchResult      = "match-result"
	QueueMatchAbruptClose = "match-abrupt-close"
	QueueGameCreate       = "game-created"
	QueueHealthCheck      = "health-check"
	QueueAITask           = "ai-task-generate-request"
	QueueAIRegister       = "ai-register"
)
