package models

import (
	"strings"
	"time"
)

type Follower struct {
	Login      string `json:"login"`
	AvatarURL  string `json:"avatarUrl"`
	ProfileURL string `json:"profileUrl"`
}

// LoginKey normalises a login for comparisons. GitHub logins are case-insensitive.
func LoginKey(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// Key returns the normalised identity of the follower.
func (f Follower) Key() string {
	return LoginKey(f.Login)
}

type FollowerStatus struct {
	Follower
	FollowsBack bool `json:"followsBack"`
}

type Snapshot struct {
	Followers   []Follower `json:"followers"`
	LastChecked time.Time  `json:"lastChecked"`
}

type UnfollowerRecord struct {
	Unfollowers []Follower `json:"unfollowers"`
	LastChecked time.Time  `json:"lastChecked"`
}

// LoginSet builds a lookup set of normalised logins.
func LoginSet(followers []Follower) map[string]struct{} {
	set := make(map[string]struct{}, len(followers))
	for _, f := range followers {
		set[f.Key()] = struct{}{}
	}
	return set
}

// WithFollowBack marks each follower that also appears in following.
func WithFollowBack(followers, following []Follower) []FollowerStatus {
	followingSet := LoginSet(following)
	result := make([]FollowerStatus, 0, len(followers))
	for _, f := range followers {
		_, ok := followingSet[f.Key()]
		result = append(result, FollowerStatus{Follower: f, FollowsBack: ok})
	}
	return result
}
