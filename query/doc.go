// Package query keeps fetched backend data in step with the query that
// describes it.
//
// A Binding holds a list descriptor (api.MovieQuery, api.CommentQuery, ...)
// and the page it names. Setting a descriptor that encodes the same as the
// held one does nothing; changing it fetches again. Every fetch carries a
// sequence number and a result that arrives after a newer fetch was started
// is dropped, so a slow response can never replace a fresher page.
//
//	movies := query.Movies(client, logger)
//	state, err := movies.Set(ctx, api.MovieQuery{Filter: api.MovieFilter{Genres: []string{"Drama"}}})
//	state, err = movies.Next(ctx)
//
// Writes that change a list go through Mutate (or a helper such as
// Comments.Create) so the held page is refetched once the write succeeds.
//
// Entity does the same for a single film or profile, and LoadFriends
// resolves a user's friends with a bounded number of concurrent lookups.
package query
