// Package id generates time-ordered record identifiers. IDs sort
// lexicographically by creation time, which lets the log store iterate
// history in timestamp order without a secondary index.
package id
