// Package cache stores synthesized audio pieces in two tiers: a bounded
// in-memory LRU (L1) and a zstd-compressed directory on disk (L2) that
// survives between runs.
package cache
