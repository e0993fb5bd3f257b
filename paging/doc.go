// Package paging loads offset keyed pages from a backend range query.
//
// A load at position p with size n requests rows p..p+n-1. The resulting page links
// back to max(p-n, 0), or nowhere at position 0, and forward to p+n unless the page
// ended the list. RefreshKey picks where to resume after the host invalidates its
// loaded pages.
package paging
