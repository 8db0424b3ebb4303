// Package places provides a text-search client for the upstream place
// directory API. Results are plain data suitable for caching and JSON
// rendering.
//
// Like the chat providers, the API credential is passed per call because
// credentials are issued by the quota tracker at admission time:
//
//	client := places.NewClient()
//
//	results, err := client.Search(ctx, credential, "ramen in Osaka")
//	if err != nil {
//		return err
//	}
//
// The credential travels in a header, never in the URL, so it cannot leak
// through request logs or error messages.
package places
