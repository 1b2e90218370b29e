// Package ids generates the opaque tokens handed out by the connector and
// the matching engine: join tokens and shard identifiers.
package ids

import "github.com/google/uuid"

// New returns a fresh random token, used for join tokens and the transient
// shard uuid that ties together the scalar and players:<i> messages of a
// single match proposal. Read/write match tokens are not generated here;
// they arrive in the CreatedMatch message.
func New() string {
	return uuid.NewString()
}
