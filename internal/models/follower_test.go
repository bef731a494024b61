package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialValid(t *testing.T) {
	tests := []struct {
		name string
		cred Credential
		want bool
	}{
		{"both set", Credential{Token: "ghp_x", Username: "octo"}, true},
		{"missing token", Credential{Username: "octo"}, false},
		{"missing username", Credential{Token: "ghp_x"}, false},
		{"blank fields", Credential{Token: "  ", Username: "\t"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cred.Valid())
		})
	}
}

func TestCredentialMasked(t *testing.T) {
	assert.Equal(t, "*****1234", Credential{Token: "abcde1234"}.Masked())
	assert.Equal(t, "***", Credential{Token: "abc"}.Masked())
}

func TestWithFollowBackIgnoresCase(t *testing.T) {
	followers := []Follower{{Login: "Alice"}, {Login: "bob"}}
	following := []Follower{{Login: "alice"}}

	got := WithFollowBack(followers, following)

	assert.Len(t, got, 2)
	assert.True(t, got[0].FollowsBack)
	assert.False(t, got[1].FollowsBack)
}

func TestTotalStars(t *testing.T) {
	assert.Equal(t, 0, TotalStars(nil))
	assert.Equal(t, 12, TotalStars([]Repo{{Stars: 5}, {Stars: 7}}))
}
