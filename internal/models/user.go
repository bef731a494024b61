package models

import "time"

type UserDetails struct {
	Login       string    `json:"login"`
	Name        string    `json:"name,omitempty"`
	AvatarURL   string    `json:"avatarUrl"`
	ProfileURL  string    `json:"profileUrl"`
	Bio         string    `json:"bio,omitempty"`
	PublicRepos int       `json:"publicRepos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	TotalStars  int       `json:"totalStars"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Repo struct {
	Name        string    `json:"name"`
	FullName    string    `json:"fullName"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Fork        bool      `json:"fork"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Repo      string    `json:"repo"`
	CreatedAt time.Time `json:"createdAt"`
}

// TotalStars sums stargazers across repos.
func TotalStars(repos []Repo) int {
	total := 0
	for _, r := range repos {
		total += r.Stars
	}
	return total
}
