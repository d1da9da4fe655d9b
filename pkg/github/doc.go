// Package github exposes GitHub repositories, issues, labels and comments as
// resource handles backed by the pagination engine.
//
// A handle (Issue, Label, Comment) knows its coordinates and reads its own JSON
// with one GET. Smart wrappers (SmartIssue, SmartLabel, SmartComment) read fields
// through that JSON. Listings come in two flavours:
//
//	// One GET per page, plus one GET per Title call.
//	for issue, err := range repo.Issues().Iterate(nil).All(ctx) { ... }
//
//	// One GET per page; Title is answered from the page itself.
//	for issue, err := range repo.Issues().Bulk(nil).All(ctx) {
//		title, err := github.NewSmartIssue(issue).Title(ctx)
//	}
package github
