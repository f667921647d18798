package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserFromChannel(t *testing.T) {
	userID, ok := UserFromChannel(UserChannel("abc-123"))
	assert.True(t, ok)
	assert.Equal(t, "abc-123", userID)

	_, ok = UserFromChannel(ChannelWSBroadcast)
	assert.False(t, ok)

	_, ok = UserFromChannel(ChannelUserPrefix)
	assert.False(t, ok)
}
