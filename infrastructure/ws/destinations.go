package ws

import (
	"fmt"
	"strconv"
	"strings"
)

// Destination layout (stable contract for clients):
//
//	/user/{userId}/queue/messages   private per-user queue
//	/topic/challenge/{challengeId}  shared challenge topic
//	/topic/mentorship/{mentorshipId} shared mentorship topic
func UserQueue(userId int64) string {
	return fmt.Sprintf("/user/%d/queue/messages", userId)
}

func ChallengeTopic(challengeId int64) string {
	return fmt.Sprintf("/topic/challenge/%d", challengeId)
}

func MentorshipTopic(mentorshipId int64) string {
	return fmt.Sprintf("/topic/mentorship/%d", mentorshipId)
}

// ParseUserQueue extracts the owner id from a private queue destination.
func ParseUserQueue(destination string) (int64, bool) {
	parts := strings.Split(destination, "/")
	if len(parts) != 5 || parts[0] != "" || parts[1] != "user" || parts[3] != "queue" || parts[4] != "messages" {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// IsSharedTopic reports whether destination is a challenge or mentorship topic.
func IsSharedTopic(destination string) bool {
	parts := strings.Split(destination, "/")
	if len(parts) != 4 || parts[0] != "" || parts[1] != "topic" {
		return false
	}
	if parts[2] != "challenge" && parts[2] != "mentorship" {
		return false
	}
	id, err := strconv.ParseInt(parts[3], 10, 64)
	return err == nil && id > 0
}
