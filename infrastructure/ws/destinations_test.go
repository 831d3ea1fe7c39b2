package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUserQueue(t *testing.T) {
	req := require.New(t)

	id, ok := ParseUserQueue("/user/42/queue/messages")
	req.True(ok)
	req.EqualValues(42, id)

	id, ok = ParseUserQueue(UserQueue(7))
	req.True(ok)
	req.EqualValues(7, id)

	for _, destination := range []string{
		"/user/0/queue/messages",
		"/user/-1/queue/messages",
		"/user/abc/queue/messages",
		"/user/42/queue/other",
		"/topic/challenge/42",
		"user/42/queue/messages",
		"",
	} {
		_, ok := ParseUserQueue(destination)
		req.False(ok, destination)
	}
}

func TestIsSharedTopic(t *testing.T) {
	req := require.New(t)

	req.True(IsSharedTopic(ChallengeTopic(7)))
	req.True(IsSharedTopic(MentorshipTopic(5)))

	for _, destination := range []string{
		"/topic/challenge/0",
		"/topic/challenge/abc",
		"/topic/room/7",
		"/user/7/queue/messages",
		"/topic/challenge",
		"",
	} {
		req.False(IsSharedTopic(destination), destination)
	}
}
