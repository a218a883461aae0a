// Package social defines the posting collaborator contract and the alert
// webhook client. Wire details of the posting API live behind the Poster
// interface.
package social

import "context"

// Poster publishes media to the social target.
type Poster interface {
	// UploadMedia uploads the files at the given paths and returns their
	// media ids in the same order.
	UploadMedia(ctx context.Context, paths []string) ([]string, error)

	// SetAltText attaches accessibility alt text to an uploaded media id.
	SetAltText(ctx context.Context, mediaID, text string) error

	// Post publishes a post holding the media and returns the post id.
	Post(ctx context.Context, text string, mediaIDs []string) (string, error)
}

// NopPoster satisfies Poster without talking to any network. Used for dry
// runs and tests.
type NopPoster struct{}

func (NopPoster) UploadMedia(ctx context.Context, paths []string) ([]string, error) {
	ids := make([]string, len(paths))
	for i := range paths {
		ids[i] = "dry-run-media"
	}
	return ids, nil
}

func (NopPoster) SetAltText(ctx context.Context, mediaID, text string) error { return nil }

func (NopPoster) Post(ctx context.Context, text string, mediaIDs []string) (string, error) {
	return "dry-run-post", nil
}
