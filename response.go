package glimpse

// Response is the model's answer to one Request.
type Response struct {
	Text          string
	StopReason    StopReason
	RawStopReason string // provider-specific reason, kept for diagnostics
	Usage         Usage
}
