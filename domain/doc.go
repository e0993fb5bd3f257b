// Package domain holds the entities exchanged with the backend. Nullable remote
// columns are pointers.
package domain
