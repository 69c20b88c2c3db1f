package generatereport

type Input struct {
	RequestID   string `json:"requestId,omitempty"`
	Query       string `json:"query"`
	MaxRetries  *int   `json:"maxRetries,omitempty"`
	NotifyEmail string `json:"notifyEmail,omitempty"`
}

type Output struct {
	RequestID         string                 `json:"requestId"`
	Report            map[string]interface{} `json:"report"`
	ValidationSuccess bool                   `json:"validationSuccess"`
	State             string                 `json:"state"`
	Attempts          int                    `json:"attempts"`
	Errors            []string               `json:"errors"`
	ImpossibleQuery   bool                   `json:"impossibleQuery"`
	Reason            string                 `json:"reason,omitempty"`
	NotifyEmail       string                 `json:"notifyEmail,omitempty"`
	Archived          bool                   `json:"archived"`
}
