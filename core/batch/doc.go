// Package batch orchestrates tool-using calculations over an asynchronous
// message batch.
//
// The flow has three steps. [Orchestrator.Submit] validates the requests and
// creates one remote batch. [Orchestrator.Poll] waits for it to end with a
// growing interval, retrying transient API failures, and downloads the item
// results. [Orchestrator.Resolve] then produces one [CalculationResult] per
// request in submission order: a plain answer is read as the first number in
// its text, a tool call is executed against the local tool catalog.
// [Orchestrator.Run] chains the three.
//
// Batch-level failures ([ErrInvalidInput], [ErrRemoteService], [ErrTimeout])
// are returned as errors. Item-level failures travel in CalculationResult.Err
// and never abort the other items.
package batch
