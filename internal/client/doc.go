// Package client talks to the test-execution service's REST API.
//
// # Endpoints
//
//	GET  {base}/api/v1/{kind}                 reference lists (test plans, suites)
//	GET  {base}/api/v1/{kind}/{id}            one entity, for edit mode
//	POST {base}/api/v1/{kind}                 create
//	PUT  {base}/api/v1/{kind}/{id}            update
//	GET  {base}/api/v1/test-plans/{id}/runs   run history
//
// Non-2xx responses become *APIError carrying the status code and the
// service's message. There are no retries: the wizard surfaces the error and
// the user retries by submitting again.
//
// # Authentication
//
// Requests carry a bearer token from golang.org/x/oauth2. A static token is
// wrapped in oauth2.StaticTokenSource; when a token URL and client ID are
// configured the client-credentials grant fetches and refreshes tokens.
//
//	c, err := client.New(ctx, client.Options{
//	    BaseURL: "https://tests.example.com",
//	    Token:   os.Getenv("PLANCRAFT_API_TOKEN"),
//	})
//	plans, err := c.FetchReferenceList(ctx, "test-plans")
//
// Client implements wizard.Submitter.
package client
