package auth

// Default messages used when the server does not supply one.
const (
	LoginFailedMsg   = "Login failed"
	UpgradeFailedMsg = "Plan upgrade failed"
	InviteFailedMsg  = "User invitation failed"
)
