// Package engine implements the cinemad linking graph.
//
// A Database owns Sources and Displays built from one specification
// document. Each Display owns one Source reference and a set of
// Structures, partitioned by their io tag into inputs and outputs.
//
// ARCHITECTURE:
//
// Intersection Pass:
// Whenever an input changes its query, the Display recomputes the
// combined selection: a record of the Source passes iff it is a member
// (by pointer identity) of every input's query. The result keeps Source
// order and is assigned to every output, which then notifies its update
// listeners synchronously in registration order.
//
// Activation:
//  1. Display.Activate loads the Source (blocking, no cancellation)
//  2. every Structure builds in declaration order
//  3. one intersection pass runs
//
// Activation always reloads: Displays sharing a Source each trigger a
// fresh load.
//
// Degradation:
// Unresolved sources, bad io tags, missing builders, missing listeners
// and missing loaders are logged and degrade to empty behavior. The only
// construction failure is ErrAbstractStructure from NewStructure.
//
// Concurrency:
// The graph is not safe for concurrent mutation. Callers that share a
// Database across goroutines serialize access through internal/session.
// Source data is the one exception: loads may overlap and the last write
// wins.
package engine
