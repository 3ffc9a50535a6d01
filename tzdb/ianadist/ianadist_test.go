package ianadist

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// roundTripperFunc is a function that implements the http.RoundTripper interface.
// Useful to fake a http.Client with fakeClient.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (fn roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func fakeClient(fn roundTripperFunc) *http.Client {
	return &http.Client{Transport: fn}
}

const testLeapSeconds = "Leap\t2016\tDec\t31\t23:59:60\t+\tS\nExpires\t2025\tJun\t28\t00:00:00\n"

// mustArchive returns a gzip-compressed tar archive of files.
func mustArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range []string{"version", "europe", "leapseconds"} {
		content, ok := files[name]
		if !ok {
			continue
		}
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func releaseArchive(t *testing.T) []byte {
	return mustArchive(t, map[string]string{
		"version":     "2024b\n",
		"europe":      "# tzdb data for Europe and environs\n",
		"leapseconds": testLeapSeconds,
	})
}

func TestLatest(t *testing.T) {
	const testEtag = "test-etag"
	var requests int
	httpClient := fakeClient(func(req *http.Request) (*http.Response, error) {
		requests++
		if req.Method != http.MethodGet {
			t.Errorf("unexpected method %q", req.Method)
		}
		if req.URL.String() != "https://data.iana.org/time-zones/tzdata-latest.tar.gz" {
			t.Errorf("unexpected URL %q", req.URL)
		}
		if req.Header.Get("If-None-Match") == testEtag {
			return &http.Response{StatusCode: http.StatusNotModified, Body: http.NoBody}, nil
		}
		resp := &http.Response{
			Body:       io.NopCloser(bytes.NewReader(releaseArchive(t))),
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
		}
		resp.Header.Set("etag", testEtag)
		return resp, nil
	})
	c := &Client{HTTPClient: httpClient}
	ctx := context.Background()

	release, gotEtag, err := c.Latest(ctx, emptyEtag)
	if err != nil {
		t.Fatalf("Latest(%q) returned unexpected error: %v", emptyEtag, err)
	}
	if gotEtag != testEtag {
		t.Errorf("Latest(%q) returned ETag %q, want %q", emptyEtag, gotEtag, testEtag)
	}
	want := &Release{Version: "2024b", LeapSecondsFile: []byte(testLeapSeconds)}
	if diff := cmp.Diff(want, release); diff != "" {
		t.Errorf("Latest() mismatch (-want +got):\n%s", diff)
	}

	release, newEtag, err := c.Latest(ctx, gotEtag)
	if err != nil {
		t.Errorf("Latest(%q) returned unexpected error: %v", gotEtag, err)
	}
	if newEtag != testEtag {
		t.Errorf("Latest(%q) returned ETag %q, want %q", gotEtag, newEtag, testEtag)
	}
	if release != nil {
		t.Errorf("Latest(%q) returned a release for an unmodified resource", gotEtag)
	}

	b, etag, err := c.LatestLeapSeconds(ctx, testEtag)
	if b != nil || etag != testEtag || err != nil {
		t.Errorf("LatestLeapSeconds(%q) = %q, %q, %v, want nil, %q, nil", testEtag, b, etag, err, testEtag)
	}
	b, _, err = c.LatestLeapSeconds(ctx, emptyEtag)
	if err != nil || string(b) != testLeapSeconds {
		t.Errorf("LatestLeapSeconds(%q) = %q, %v, want %q", emptyEtag, b, err, testLeapSeconds)
	}
	if requests != 4 {
		t.Errorf("made %d requests, want 4", requests)
	}
}

func TestLatest_UnexpectedStatus(t *testing.T) {
	c := &Client{HTTPClient: fakeClient(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found", Body: http.NoBody}, nil
	})}
	release, etag, err := c.Latest(context.Background(), "stale")
	if err == nil || release != nil || etag != emptyEtag {
		t.Errorf("Latest() = %v, %q, %v, want nil, \"\", error", release, etag, err)
	}
}

func TestReadArchive(t *testing.T) {
	release, err := ReadArchive(bytes.NewReader(releaseArchive(t)))
	if err != nil {
		t.Fatalf("ReadArchive(...): unexpected non-nil error: %v", err)
	}
	if release.Version != "2024b" {
		t.Errorf("ReadArchive() version = %q, want %q", release.Version, "2024b")
	}

	noLeaps := mustArchive(t, map[string]string{"version": "2024b\n"})
	if _, err := ReadArchive(bytes.NewReader(noLeaps)); !errors.Is(err, ErrNoLeapSeconds) {
		t.Errorf("ReadArchive() without leapseconds err = %v, want %v", err, ErrNoLeapSeconds)
	}
	noVersion := mustArchive(t, map[string]string{"leapseconds": testLeapSeconds})
	if _, err := ReadArchive(bytes.NewReader(noVersion)); err == nil {
		t.Errorf("ReadArchive() without version did not fail")
	}
}
