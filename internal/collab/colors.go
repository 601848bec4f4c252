package collab

// Display color palette assigned to users.
var userColors = []string{
	"#ff6b6b", "#4ecdc4", "#45b7d1", "#96c93d", "#f9ca24",
	"#f0932b", "#eb4d4b", "#6c5ce7", "#a29bfe", "#fd79a8",
	"#00b894", "#0984e3", "#e17055", "#fdcb6e",
}

// ColorFor deterministically maps a user id into the palette, so the same
// user keeps the same color across reconnects.
func ColorFor(userID string) string {
	sum := 0
	for _, r := range userID {
		sum += int(r)
	}
	return userColors[sum%len(userColors)]
}
