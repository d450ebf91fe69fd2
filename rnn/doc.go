// Package rnn is the chord classifier: a token embedding feeding a
// single-layer LSTM whose final hidden state is projected to chord logits.
//
// Everything outside the package depends only on the contract: Logits for
// inference, Forward and Backward for training, Parameters for optimizers
// and Snapshot/Restore for checkpoints. Weights are gonum dense matrices;
// Parameters exposes their backing slices so optimizers can update them in
// place.
package rnn
