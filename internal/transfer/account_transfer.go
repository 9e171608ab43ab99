package transfer

type ConnectAccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AccountStatus struct {
	Platform    string  `json:"platform"`
	Username    string  `json:"username"`
	ConnectedAt string  `json:"connected_at"`
	LastUsed    *string `json:"last_used"`
}
