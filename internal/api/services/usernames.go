package services

import (
	"fmt"
	"math/rand"
)

var usernameAdjectives = []string{
	"Happy", "Sunny", "Bright", "Kind", "Gentle", "Swift", "Bold", "Brave",
	"Calm", "Wise", "Cool", "Warm", "Sweet", "Clever", "Witty", "Jolly",
	"Merry", "Noble", "Proud", "Quick", "Silent", "Steady", "Strong", "True",
}

var usernameNouns = []string{
	"Panda", "Tiger", "Eagle", "Dolphin", "Phoenix", "Dragon", "Wolf", "Bear",
	"Falcon", "Lion", "Otter", "Raven", "Swan", "Hawk", "Fox", "Owl",
	"Whale", "Shark", "Turtle", "Rabbit", "Deer", "Moose", "Lynx", "Seal",
}

// GenerateUsername produces a display handle like "KindOtter42". Uniqueness
// is enforced by the users table, not here; callers retry on collision.
func GenerateUsername() string {
	adjective := usernameAdjectives[rand.Intn(len(usernameAdjectives))]
	noun := usernameNouns[rand.Intn(len(usernameNouns))]
	return fmt.Sprintf("%s%s%d", adjective, noun, rand.Intn(1000))
}
