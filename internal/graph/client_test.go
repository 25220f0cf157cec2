package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		Endpoint:      srv.URL + "/v23.0",
		Timeout:       5 * time.Second,
		VerifyRetries: 2,
	}, nil)
}

func TestVerifyPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v23.0/pg1", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		assert.Equal(t, "id,name,access_token", r.URL.Query().Get("fields"))
		_, _ = io.WriteString(w, `{"id":"pg1","name":"Corner Bakery","access_token":"page-tok"}`)
	})

	info, err := c.VerifyPage(context.Background(), "pg1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "pg1", info.ID)
	assert.Equal(t, "Corner Bakery", info.Name)
	assert.Equal(t, "page-tok", info.AccessToken)
}

func TestVerifyPageRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid OAuth access token.","code":190}}`)
	})

	_, err := c.VerifyPage(context.Background(), "pg1", "bad")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, 190, se.API.Code)
}

func TestVerifyPageRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"id":"pg1","name":"Shop"}`)
	})

	info, err := c.VerifyPage(context.Background(), "pg1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "Shop", info.Name)
	assert.EqualValues(t, 3, calls.Load())
}

func TestUploadPhotoMultipart(t *testing.T) {
	scheduled := time.Unix(1_900_000_000, 0)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v23.0/pg1/photos", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "tok", r.FormValue("access_token"))
		assert.Equal(t, "caption text", r.FormValue("caption"))
		assert.Equal(t, "false", r.FormValue("published"))
		assert.Equal(t, "1900000000", r.FormValue("scheduled_publish_time"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "image.jpg", hdr.Filename)
		assert.Equal(t, "image/jpeg", hdr.Header.Get("Content-Type"))
		data, _ := io.ReadAll(f)
		assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)

		_, _ = io.WriteString(w, `{"id":"media-9"}`)
	})

	res, err := c.UploadPhoto(context.Background(), "pg1", "tok", Photo{
		Caption:     "caption text",
		Image:       []byte{0xFF, 0xD8, 0xFF},
		ScheduledAt: &scheduled,
	})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "media-9", res.ID)
}

func TestCreateFeedPostForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v23.0/pg1/feed", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Grand opening!", r.PostForm.Get("message"))
		assert.Empty(t, r.PostForm.Get("published"))
		assert.Empty(t, r.PostForm.Get("scheduled_publish_time"))

		var media []map[string]string
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("attached_media")), &media))
		assert.Equal(t, []map[string]string{{"media_fbid": "media-9"}}, media)

		_, _ = io.WriteString(w, `{"id":"123"}`)
	})

	res, err := c.CreateFeedPost(context.Background(), "pg1", "tok", FeedPost{
		Message:  "Grand opening!",
		MediaIDs: []string{"media-9"},
	})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "123", res.ID)
	assert.Equal(t, "https://www.facebook.com/123", c.PostURL(res.ID))
}

func TestCreateFeedPostErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","error_user_msg":"try later"}}`)
	})

	res, err := c.CreateFeedPost(context.Background(), "pg1", "tok", FeedPost{Message: "hi"})
	require.NoError(t, err)
	assert.False(t, res.OK())
	msg, detail := res.ErrorMessage()
	assert.Equal(t, "boom", msg)
	assert.Equal(t, "try later", detail)
	assert.EqualValues(t, 1, calls.Load())
}

func TestNonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	})

	res, err := c.CreateFeedPost(context.Background(), "pg1", "tok", FeedPost{Message: "hi"})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "upstream down", res.Error.Message)
}

func TestIsDuplicateMedia(t *testing.T) {
	cases := []struct {
		err  *APIError
		want bool
	}{
		{nil, false},
		{&APIError{Message: "Invalid parameter"}, false},
		{&APIError{Message: "This photo was Already Posted"}, true},
		{&APIError{Message: "Invalid parameter", UserMessage: "The image has already posted on this page."}, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.IsDuplicateMedia(), "%+v", tc.err)
	}
}

func TestErrorMessageDefaults(t *testing.T) {
	msg, detail := (&Result{StatusCode: 400}).ErrorMessage()
	assert.Equal(t, "Unknown error", msg)
	assert.Equal(t, "No details provided", detail)
}
