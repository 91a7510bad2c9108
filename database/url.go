package database

import (
	"fmt"
	"net/url"
	"strings"
)

// ConstructDatabaseURL joins a server URL (DATABASE_URL) with a database name
// (DATABASE_NAME). An empty name returns baseURL untouched. sslmode=disable is
// added when the URL does not choose an sslmode itself.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" {
		// Not a URL we understand; fall back to plain concatenation
		return fmt.Sprintf("%s/%s", strings.TrimRight(baseURL, "/"), databaseName)
	}

	u.Path = "/" + databaseName
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()

	return u.String()
}
