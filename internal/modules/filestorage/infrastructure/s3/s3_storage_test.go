package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/udyami/marketplace/internal/modules/filestorage/domain"
)

func TestS3Storage_PutGetDeleteAndPresign(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/missing.json"):
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>gone</Message></Error>`)
		case r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"users":[]}`)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer ts.Close()

	st, err := NewS3Storage(context.Background(), S3Config{
		BucketName:     "bucket",
		Region:         "ap-south-1",
		Endpoint:       ts.URL,
		PublicEndpoint: "cdn.local",
		AccessKey:      "x",
		SecretKey:      "y",
		UseSSL:         false,
	})
	require.NoError(t, err)

	url, err := st.Put(context.Background(), "snapshots/a.json", bytes.NewReader([]byte("{}")), "application/json")
	require.NoError(t, err)
	require.Equal(t, "http://cdn.local/bucket/snapshots/a.json", url)

	rc, err := st.Get(context.Background(), "snapshots/a.json")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.JSONEq(t, `{"users":[]}`, string(body))

	_, err = st.Get(context.Background(), "snapshots/missing.json")
	require.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	require.NoError(t, st.Delete(context.Background(), "snapshots/a.json"))

	d, err := st.PresignDownload(context.Background(), "snapshots/a.json", "a.json", time.Minute)
	require.NoError(t, err)
	require.Contains(t, d, "response-content-disposition")
	require.Contains(t, d, "cdn.local")
}

func TestS3Storage_Errors(t *testing.T) {
	st, err := NewS3Storage(context.Background(), S3Config{
		BucketName: "bucket", Region: "ap-south-1", Endpoint: "http://127.0.0.1:1", AccessKey: "x", SecretKey: "y",
	})
	require.NoError(t, err)

	_, err = st.Put(context.Background(), "k", bytes.NewBufferString("x"), "application/json")
	require.Error(t, err)

	_, err = st.Get(context.Background(), "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrSnapshotNotFound)

	err = st.Delete(context.Background(), "k")
	require.Error(t, err)
}
