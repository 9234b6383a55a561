// Package projection places a query and its retrieved fragments on a 2D plane.
//
// Engine embeds the query and fragment texts, separates vectors that are
// exactly equal to the query, and lays all of them out with t-SNE. Fragments
// are then resolved back to stored segments; fragments whose segment is gone
// or unavailable are dropped from the result.
//
// Layouts are stochastic. Inject a seeded *rand.Rand with WithRand to make
// them repeatable.
package projection
