package dispatcher

// Work represents a render job message pulled off the queue.
type Work struct {
	RequestKey string `json:"s3Location"`
	Operation  string `json:"operation"`
	Slug       string `json:"slug"`
}

// OperationRender is the only operation workers currently understand.
const OperationRender = "render"

// IsValid reports whether the message carries everything a worker needs.
func (w *Work) IsValid() bool {
	return w.RequestKey != "" && w.Operation != "" && w.Slug != ""
}
