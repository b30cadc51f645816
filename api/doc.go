// Package api provides a client for the films backend: films, users, their
// comments (assessments) and friendships.
//
// # Usage
//
//	store, _ := session.NewFileStore(session.DefaultPath)
//	client, err := api.NewClient("http://localhost:8080", store, logger,
//		api.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if _, err := client.Login(ctx, "ana@example.com", "secret"); err != nil {
//		log.Fatal(err)
//	}
//
//	page, err := client.ListMovies(ctx, api.MovieQuery{
//		Filter: api.MovieFilter{Genres: []string{"Drama"}},
//		Sort:   api.Sort{{Field: "title", Direction: api.Asc}},
//	})
//
// # Sessions
//
// The client never owns global state. The session is loaded from the
// session.Store passed to NewClient, sent as the Authorization header on
// every request, written by Login and cleared by Logout. A failed Login
// leaves the store untouched.
//
// # Error Handling
//
// Every method returns either a value or an *APIError; nothing is left
// undefined. Match a failure class with errors.Is:
//
//	_, err := client.GetMovie(ctx, id)
//	switch {
//	case errors.Is(err, api.ErrNotFound):
//	case errors.Is(err, api.ErrUnauthorized):
//	}
//
// or read it directly with api.KindOf(err).
//
// # Partial updates
//
// Update methods take a list of JSON-Patch operations. Build them by hand
// with Replace, Add and Remove, or let Plan work out the minimal patch from
// the current entity, a JSON merge document and assignments.
package api
