/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import (
	"strconv"
	"time"
)

// Fields is the decomposed field-per-key representation of one entity:
// scalar values, index-suffixed vector values, and nested hash maps - the
// three field shapes the original adapter's RedisInsertWriter/
// RedisOutputReader implementations produced per struct field type.
type Fields struct {
	Scalars map[string]string
	Vectors map[string][]string
	Hashes  map[string]map[string]string
}

func NewFields() Fields {
	return Fields{
		Scalars: map[string]string{},
		Vectors: map[string][]string{},
		Hashes:  map[string]map[string]string{},
	}
}

// Codec translates between a typed entity and its Fields representation.
// Each entity kind hand-writes its own Codec - the Go equivalent of the
// per-struct derive macros the original store adapter relied on - and
// declares its field names up front so Store knows which redis shape
// (string, index-suffixed string, or hash) to read back for each one.
type Codec[T any] interface {
	Kind() string
	ScalarFields() []string
	VectorFields() []string
	HashFields() []string
	Encode(v T) Fields
	Decode(id string, f Fields) (T, error)
}

func encodeTime(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func decodeTime(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(sec, 0)
}

func encodeBool(b bool) string {
	return strconv.FormatBool(b)
}

func decodeBool(s string) bool {
	return s == "true"
}

func encodeInt(i int) string {
	return strconv.Itoa(i)
}

func decodeInt(s string) int {
	n, _ := strconv.Atoi(s)

	return n
}
