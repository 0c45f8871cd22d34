// Package grid turns tree-shaped and row-shaped datasets into one table.
//
// The pipeline runs in a fixed order and every stage is a pure function of
// its inputs:
//
//  1. Normalize: [NormalizeTree] or [NormalizeFlat] produce ordered [Record]s.
//  2. Resolve columns: [DiscoverColumns] then [ResolveColumns] apply the
//     selection and the column cap, and derive prefix groups.
//  3. Filter and sort: [Filter] and [Sort] with a single [SortState].
//  4. Group: [GroupRecords] clusters rows by the fixed identifier column.
//  5. Govern: [Govern] caps how many rows are physically rendered.
//
// [View] wires the stages together and keeps the per-dataset session state
// (selection, sort, filter) that the presentation layer mutates.
//
// # Cell values
//
// Every stage reads cells through [Value]. An absent key and an empty
// string both resolve to "". Any other string, including "0", is kept as is.
//
// # Concurrency
//
// Nothing in this package is safe for concurrent mutation. A View is owned
// by one event loop.
package grid
