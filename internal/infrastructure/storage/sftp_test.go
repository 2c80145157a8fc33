package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeConn struct {
	io.Reader
	io.WriteCloser
}

// inMemoryClient serves an in-memory filesystem over a pipe.
func inMemoryClient(t *testing.T) *sftp.Client {
	t.Helper()
	clientRead, serverWrite := io.Pipe()
	serverRead, clientWrite := io.Pipe()

	server := sftp.NewRequestServer(pipeConn{serverRead, serverWrite}, sftp.InMemHandler())
	go func() { _ = server.Serve() }()

	client, err := sftp.NewClientPipe(clientRead, clientWrite)
	require.NoError(t, err)
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return client
}

func TestSFTPStore_Upload(t *testing.T) {
	client := inMemoryClient(t)
	store := NewSFTPStore(Config{RemoteDir: "/uploads/thumbnails", BaseURL: "https://cdn.example.com/thumbnails/"})
	store.dial = func(context.Context) (*sftp.Client, func() error, error) {
		return client, func() error { return nil }, nil
	}

	url, err := store.Upload(context.Background(), "Cover.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/thumbnails/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	f, err := client.Open(path.Join("/uploads/thumbnails", path.Base(url)))
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestSFTPStore_MissingCredentials(t *testing.T) {
	store := NewSFTPStore(Config{})
	_, err := store.Upload(context.Background(), "a.png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing SFTP_HOST")
}
