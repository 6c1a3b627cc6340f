package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const MailTypeRunFinished = "run_finished"

type RunFinishedMailData struct {
	RunID          string             `json:"runID"`
	InstanceName   string             `json:"instanceName"`
	Algorithm      string             `json:"algorithm"`
	Status         RunStatus          `json:"status"`
	Error          string             `json:"error"`
	Evaluations    int                `json:"evaluations"`
	Scores         map[string]float64 `json:"scores"`
	OriginalScores map[string]float64 `json:"originalScores"`
	Duration       string             `json:"duration"`
}
