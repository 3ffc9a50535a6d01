// Package ianadist downloads tzdb releases distributed by IANA and extracts
// their leap-second table.
//
// Releases are downloaded from the [IANA data server]. Clients are advised
// to store the [ETags] returned in this package and pass them to subsequent
// calls to avoid downloading the same data multiple times.
//
// [ETags]: https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/ETag
// [IANA data server]: https://www.iana.org/time-zones
package ianadist

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrNoLeapSeconds is returned for archives without a leapseconds file.
var ErrNoLeapSeconds = errors.New("ianadist: no leapseconds file in archive")

// Release is the part of an IANA time zone database release used for
// leap-second tables.
type Release struct {
	// Version is the version of the IANA time zone database.
	// For example, "2024b".
	Version string
	// LeapSecondsFile is the content of the leapseconds file.
	LeapSecondsFile []byte
}

// DefaultClient is the default client to download the IANA time zone database.
// It is used by the top-level functions of this package.
var DefaultClient = &Client{}

// Client is a client to download the IANA time zone database.
// The zero value is ready to use.
type Client struct {
	// HTTPClient is the http.Client used for downloads.
	// If HTTPClient is nil, http.DefaultClient is used.
	//
	// Tests can use a http.Client with a fake http.RoundTripper that
	// returns canned responses. Timeouts are also controlled by the
	// context passed to the methods of Client.
	HTTPClient *http.Client
}

// httpClient returns the http.Client used by the client.
func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

const (
	// baseURL is the base URL for time zones on the IANA data server.
	baseURL = "https://data.iana.org/time-zones/"
	// latestDataPath is the path to the latest release relative to baseURL.
	latestDataPath = "tzdata-latest.tar.gz"
	// leapSecondsFilename is the name of the leap seconds file in the archive.
	leapSecondsFilename = "leapseconds"
	// versionFilename is the name of the version file in the archive.
	versionFilename = "version"
	// emptyEtag is the empty etag value.
	emptyEtag = ""
)

// ReadArchive extracts the version and leapseconds files of a release.
//
// The io.Reader must contain a gzip-compressed tar archive as found at
// https://data.iana.org/time-zones/releases/.
func ReadArchive(r io.Reader) (*Release, error) {
	gunzip, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read gzip: %w", err)
	}
	tr := tar.NewReader(gunzip)

	var result Release
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch header.Name {
		case leapSecondsFilename:
			if result.LeapSecondsFile, err = io.ReadAll(tr); err != nil {
				return nil, fmt.Errorf("read leap seconds file: %w", err)
			}
		case versionFilename:
			v, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("read version file: %w", err)
			}
			v = bytes.TrimSpace(v)
			if len(v) == 0 {
				return nil, fmt.Errorf("empty version file")
			}
			result.Version = string(v)
		}
	}

	if result.LeapSecondsFile == nil {
		return nil, ErrNoLeapSeconds
	}
	if result.Version == "" {
		return nil, fmt.Errorf("no version found")
	}
	return &result, nil
}

// Latest is a wrapper around DefaultClient.Latest.
func Latest(ctx context.Context, etag string) (*Release, string, error) {
	return DefaultClient.Latest(ctx, etag)
}

// Latest downloads and unpacks the latest IANA time zone database.
//
// If the server responds with a 304 Not Modified status code, the returned
// ETag is the same as the input and the returned Release and error are
// both nil.
//
// If an error is returned, the returned ETag is empty and the returned
// Release is nil.
func (c *Client) Latest(ctx context.Context, etag string) (*Release, string, error) {
	r, newEtag, err := c.Download(ctx, latestDataPath, etag)
	if err != nil {
		return nil, emptyEtag, err
	}
	if r == nil {
		return nil, etag, nil // Not modified.
	}
	defer func() {
		// Drain and close the response body to ensure the
		// connection can be reused.
		_, _ = io.Copy(io.Discard, r)
		_ = r.Close()
	}()

	release, err := ReadArchive(r)
	if err != nil {
		return nil, emptyEtag, err
	}
	return release, newEtag, nil
}

// LatestLeapSeconds is a wrapper around DefaultClient.LatestLeapSeconds.
func LatestLeapSeconds(ctx context.Context, etag string) ([]byte, string, error) {
	return DefaultClient.LatestLeapSeconds(ctx, etag)
}

// LatestLeapSeconds returns the leapseconds file of the latest release.
// ETags are handled as in Latest: a nil file with a nil error means the
// release has not changed.
func (c *Client) LatestLeapSeconds(ctx context.Context, etag string) ([]byte, string, error) {
	release, newEtag, err := c.Latest(ctx, etag)
	if err != nil || release == nil {
		return nil, newEtag, err
	}
	return release.LeapSecondsFile, newEtag, nil
}

// Download is a wrapper around DefaultClient.Download.
func Download(ctx context.Context, path, etag string) (io.ReadCloser, string, error) {
	return DefaultClient.Download(ctx, path, etag)
}

// Download downloads the resource at the given path from the IANA time zone
// data server.
//
// The returned ETag is the ETag of the downloaded resource. If the server
// responds with a 304 Not Modified status code, the returned ETag is the same
// as the input and the returned io.ReadCloser and error are both nil.
//
// If no error is returned, the returned io.ReadCloser is a [http.Response.Body]
// and needs to be read fully and closed by the caller.
//
// An error is returned for HTTP status codes other than 200 OK and 304 Not Modified.
func (c *Client) Download(ctx context.Context, path, etag string) (io.ReadCloser, string, error) {
	u, err := url.JoinPath(baseURL, path)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("join URL: %w", err)
	}
	return c.downloadIfNoneMatch(ctx, u, etag)
}

// downloadIfNoneMatch downloads the resource at the given URL with caching using the given ETag.
func (c *Client) downloadIfNoneMatch(ctx context.Context, url, etag string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("create request for %q: %w", url, err)
	}
	if etag != emptyEtag {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("GET %q: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		// Drain and close the response body to reuse the connection.
		if resp.Body != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		if resp.StatusCode == http.StatusNotModified {
			return nil, etag, nil
		}
		return nil, emptyEtag, fmt.Errorf("response for %q: unexpected status: %s", url, resp.Status)
	}

	// Caller must take care of closing the response body.
	return resp.Body, resp.Header.Get("etag"), nil
}
