package sessions

// Keys under which the session pair is persisted. Both are always written
// and removed together.
const (
	UserKey  = "auth_user"
	TokenKey = "auth_token"
)

// Storage is a durable string key-value store. Get reports ok=false for a
// missing key; Remove of a missing key is not an error.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}
