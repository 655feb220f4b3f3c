package job

// TaskMessage is the queue message carrying one unit of work. The job record
// is durable in the store before a message with its id is ever published.
type TaskMessage struct {
	JobID string `json:"job_id"`
	URL   string `json:"url"`
}
