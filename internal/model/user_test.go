package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"nil user", nil, false},
		{"plain user", &User{Role: RoleUser}, false},
		{"moderator", &User{Role: RoleModerator}, false},
		{"admin role", &User{Role: RoleAdmin}, true},
		{"superuser with user role", &User{Role: RoleUser, IsSuperuser: true}, true},
		{"staff", &User{Role: RoleUser, IsStaff: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.IsAdmin())
		})
	}
}

func TestUser_IsModerator(t *testing.T) {
	assert.True(t, (&User{Role: RoleModerator}).IsModerator())
	assert.False(t, (&User{Role: RoleAdmin}).IsModerator())
	assert.False(t, (*User)(nil).IsModerator())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleModerator.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("owner").Valid())
	assert.False(t, Role("").Valid())
}

func TestRoundRating(t *testing.T) {
	assert.Nil(t, RoundRating(nil))

	avg := 7.5
	assert.Equal(t, 8, *RoundRating(&avg))

	avg = 7.49
	assert.Equal(t, 7, *RoundRating(&avg))

	avg = 10
	assert.Equal(t, 10, *RoundRating(&avg))
}

func TestCheckUsername(t *testing.T) {
	valid := []string{"bob", "bob.smith", "bob@home", "a+b-c_d", "юзер", "me2"}
	for _, u := range valid {
		assert.NoError(t, CheckUsername(u), u)
	}

	invalid := []string{"", "me", "bob smith", "bob!", "a/b", strings.Repeat("a", UsernameMaxLength+1)}
	for _, u := range invalid {
		assert.Error(t, CheckUsername(u), u)
	}
}
