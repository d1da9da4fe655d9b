// Package bulk removes the N+1 round trips of "list, then read each item".
//
// A GitHub listing page already contains the JSON of every item on it, yet a
// resource handle built from a listing element normally answers "give me your
// JSON" with a fresh GET. Iterating 100 issues and reading each title would cost
// one request per page plus one per issue.
//
// This package pairs every mapped item with the element it was built from and
// hands the pair to a Wrapper supplied by the resource adapter. The wrapper
// returns a value that behaves exactly like the original except that its JSON
// method returns the captured element:
//
//	type bulkIssue struct {
//		github.Issue
//		json bulk.Captured
//	}
//
//	func (i *bulkIssue) JSON(ctx context.Context) (json.RawMessage, error) {
//		return i.json.JSON(ctx)
//	}
//
// Embedding the original interface delegates every other method unchanged.
//
// Captured JSON is a snapshot taken at listing time. It is never refreshed and
// becomes stale as soon as the resource changes on the server; callers that need
// fresh data must read through the original resource instead.
package bulk
