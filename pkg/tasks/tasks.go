// Package tasks defines the work items carried over the task queue.
package tasks

// ProcessingTask asks a preprocessing worker to extract one file. Delivery
// is at-least-once; consumers must tolerate re-delivery of the same task.
type ProcessingTask struct {
	FileID  string `json:"file_id"`
	Attempt int    `json:"attempt"`
}
