package model

// AuthContext carries the opaque provider access token for one request.
// It is attached to every tool invocation and must never be logged or
// echoed to the model or client.
type AuthContext struct {
	AccessToken string
}

// HasToken reports whether a credential is present.
func (a AuthContext) HasToken() bool {
	return a.AccessToken != ""
}
