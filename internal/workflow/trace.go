package workflow

type ReplayTrace struct {
	Steps       []ReplayStep `json:"steps"`
	Report      Report       `json:"report"`
	LastEntered string       `json:"last_entered,omitempty"`
}

type ReplayStep struct {
	Index   int    `json:"index"`
	Type    string `json:"type"`
	Target  string `json:"target,omitempty"`
	Status  Status `json:"status,omitempty"`
	Matched bool   `json:"matched"`
	Note    string `json:"note,omitempty"`
}
