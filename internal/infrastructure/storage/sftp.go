package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

type Config struct {
	Host      string
	Port      int
	User      string
	Pass      string
	RemoteDir string
	// BaseURL is the public prefix the remote directory is served under.
	BaseURL string
}

type dialFunc func(ctx context.Context) (*sftp.Client, func() error, error)

// SFTPStore uploads course thumbnails to a remote directory over SFTP.
type SFTPStore struct {
	cfg  Config
	dial dialFunc
}

func NewSFTPStore(cfg Config) *SFTPStore {
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}
	s := &SFTPStore{cfg: cfg}
	s.dial = s.dialSSH
	return s
}

// Upload stores content under a fresh name keeping the extension of filename
// and returns its public URL.
func (s *SFTPStore) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	client, closeFn, err := s.dial(ctx)
	if err != nil {
		return "", err
	}
	defer closeFn()

	if err := client.MkdirAll(s.cfg.RemoteDir); err != nil {
		return "", errors.Wrapf(err, "sftp: mkdir %s", s.cfg.RemoteDir)
	}

	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	dst, err := client.Create(path.Join(s.cfg.RemoteDir, name))
	if err != nil {
		return "", errors.Wrap(err, "sftp: create remote file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		return "", errors.Wrap(err, "sftp: upload copy")
	}
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + name, nil
}

func (s *SFTPStore) dialSSH(ctx context.Context) (*sftp.Client, func() error, error) {
	if s.cfg.Host == "" || s.cfg.User == "" || s.cfg.Pass == "" {
		return nil, nil, errors.New("sftp: missing SFTP_HOST / SFTP_USER / SFTP_PASSWORD")
	}

	sshCfg := &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(s.cfg.Pass)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         20 * time.Second,
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	type dialRes struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialRes, 1)
	go func() {
		c, err := ssh.Dial("tcp", addr, sshCfg)
		ch <- dialRes{client: c, err: err}
	}()

	var sshClient *ssh.Client
	select {
	case <-ctx.Done():
		return nil, nil, errors.Wrap(ctx.Err(), "sftp: dial canceled")
	case r := <-ch:
		if r.err != nil {
			return nil, nil, errors.Wrap(r.err, "sftp: dial")
		}
		sshClient = r.client
	}

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, nil, errors.Wrap(err, "sftp: new client")
	}
	return client, func() error {
		client.Close()
		return sshClient.Close()
	}, nil
}
