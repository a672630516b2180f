// Package cancel provides a cooperative one-shot cancellation token.
// Any number of sender handles share a single delivery slot with one
// receiving token; the cancelled operation observes the signal only at
// checkpoints it chooses, so sections without a checkpoint always run
// to completion once entered.
package cancel
