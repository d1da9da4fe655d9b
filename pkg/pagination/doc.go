// Package pagination turns a paginated GitHub listing into a lazy, typed sequence.
//
// GitHub paginates list endpoints with RFC 5988 Link headers rather than page
// counts: every response carries the URL of the next page (rel="next") until the
// last page, which carries none. This package follows those links one page at a
// time, on demand:
//
//	listing := pagination.NewListing(httpClient, pagination.Request{
//		URL:   "https://api.github.com/repos/octocat/hello-world/issues",
//		Query: url.Values{"state": []string{"all"}},
//	}, pagination.Decode[Issue]())
//
//	seq := listing.Iterate()
//	for issue, err := range seq.All(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(issue.Title)
//	}
//
// The engine:
//   - Fetches a page only when the buffer of the previous page is drained
//   - Never reads ahead and never requests pages concurrently
//   - Applies the element mapper at consumption time, once per element
//   - Surfaces transport and parse failures on the call that triggered the fetch
//   - Never retries: retries, caching and rate limiting belong to the Doer
//
// A Sequence is single-pass. Call Listing.Iterate again to start over from the
// first page.
package pagination
