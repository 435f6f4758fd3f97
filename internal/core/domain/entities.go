package domain

import (
	"fmt"
	"math"
	"time"
)

// Place is a named location. It always carries a coordinate.
type Place struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    GeoPoint  `json:"location"`
	Distance    *float64  `json:"distance,omitempty"` // computed field, meters
	CreatedAt   time.Time `json:"created_at"`
}

// User is an account, optionally located.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email,omitempty"`
	PasswordHash  string    `json:"-"`
	DisplayName   string    `json:"display_name,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	Website       string    `json:"website,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	AvatarAssetID string    `json:"-"`
	Location      *GeoPoint `json:"location,omitempty"`
	Stats         UserStats `json:"stats"`
	Distance      *float64  `json:"distance,omitempty"` // computed field, meters
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Public strips private fields before a user is shown to someone else.
func (u User) Public() User {
	u.Email = ""
	return u
}

// UserStats are engagement counters; never negative.
type UserStats struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
	Likes     int64 `json:"likes"`
	Visits    int64 `json:"visits"`
}

// StatCounter names one of the UserStats counters.
type StatCounter string

const (
	StatFollowers StatCounter = "followers"
	StatFollowing StatCounter = "following"
	StatLikes     StatCounter = "likes"
	StatVisits    StatCounter = "visits"
)

// ParseStatCounter validates a counter name.
func ParseStatCounter(s string) (StatCounter, error) {
	switch c := StatCounter(s); c {
	case StatFollowers, StatFollowing, StatLikes, StatVisits:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown counter %q", ErrInvalidInput, s)
}

// ApplyStatDelta returns cur+delta clamped at zero. A sum that would overflow
// int64 is rejected with ErrInvalidInput.
func ApplyStatDelta(cur, delta int64) (int64, error) {
	if delta > 0 && cur > math.MaxInt64-delta {
		return 0, fmt.Errorf("%w: counter overflow", ErrInvalidInput)
	}
	return max(cur+delta, 0), nil
}

// ProfileUpdate is a partial update of a user's profile. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	Website     *string
	Location    *GeoPoint
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.Website == nil && u.Location == nil
}

// Asset is an uploaded image as returned by the image host.
type Asset struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NearbyUsers is the response envelope of a user radius search.
type NearbyUsers struct {
	Center GeoPoint `json:"center"`
	Radius float64  `json:"radius"`
	Count  int      `json:"count"`
	Users  []User   `json:"users"`
}

// DomainEvent is published after a successful mutation.
type DomainEvent struct {
	Type       string    `json:"type"`
	EntityID   int64     `json:"entity_id"`
	Location   *GeoPoint `json:"location,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventPlaceCreated        = "place.created"
	EventPlaceDeleted        = "place.deleted"
	EventUserRegistered      = "user.registered"
	EventUserLocationUpdated = "user.location_updated"
	EventUserDeleted         = "user.deleted"
)
