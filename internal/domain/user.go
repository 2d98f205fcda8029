package domain

// User represents a reader account in the catalog.
//
// There is no per-user password hash: authentication compares the presented
// secret against a single shared catalog password configured on the server.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	FavoriteGenre string `json:"favoriteGenre"`
}
