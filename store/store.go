// Package store defines the client-side key-value store that holds the session
// between runs. The layout is three independent string entries and has no
// schema version.
package store

// Keys under which the session is persisted.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// SessionKeys lists every key the session manager writes.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Store is a persistent string key-value store.
//
// Put applies all entries as one unit: after a crash either every entry of the
// call is visible or none is. Delete of a missing key is not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Put(entries map[string]string) error
	Delete(keys ...string) error
}
