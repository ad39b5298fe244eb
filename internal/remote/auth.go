package remote

// StaticAuthenticator hands out the same credentials for every registry.
type StaticAuthenticator struct {
	Username string
	Password string
}

// Authenticate returns the configured credentials.
func (a StaticAuthenticator) Authenticate(string) (string, string, error) {
	return a.Username, a.Password, nil
}
