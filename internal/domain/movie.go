package domain

import "time"

// CollectionKind selects one of the per-user movie lists
type CollectionKind string

const (
	CollectionFavorites CollectionKind = "favorites"
	CollectionWatchlist CollectionKind = "watchlist"
)

// CollectionItem is a movie saved to a user's favorites or watchlist
type CollectionItem struct {
	ID      string    `json:"id" db:"id"`
	UserID  string    `json:"user_id" db:"user_id"`
	MovieID int64     `json:"movie_id" db:"movie_id"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}

// MovieRequest is the body used to add a movie to a collection
type MovieRequest struct {
	MovieID int64 `json:"movieId"`
}

// Review is a user's rating and comment for one movie
type Review struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Username  *string   `json:"username,omitempty" db:"username"`
	MovieID   int64     `json:"movie_id" db:"movie_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ReviewRequest is the body of POST /reviews
type ReviewRequest struct {
	MovieID int64  `json:"movieId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// DiscoverQuery holds the filters forwarded to the catalog discover endpoint
type DiscoverQuery struct {
	Page      int
	Genres    string
	StartDate string
	EndDate   string
}
