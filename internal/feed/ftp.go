// Package feed pulls plant-control export files from the plant's FTP drop
// directory so they can be imported and validated locally.
package feed

import (
	"context"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rmxops/plantctl/internal/config"
)

// Client downloads export files from the plant-control FTP server.
type Client struct {
	cfg config.FeedConfig
}

// NewClient creates a feed client. A zero timeout defaults to 30 seconds.
func NewClient(cfg config.FeedConfig) *Client {
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 30
	}
	if cfg.Port <= 0 {
		cfg.Port = 21
	}
	return &Client{cfg: cfg}
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
}

func (c *Client) timeout() time.Duration {
	return time.Duration(c.cfg.TimeoutSecs) * time.Second
}

// PulledFile describes one file downloaded from the drop directory.
type PulledFile struct {
	Name      string
	LocalPath string
	Size      int64
}

// shouldPull decides whether a remote entry needs downloading. Directories
// and link entries are skipped; a file already present locally with the same
// size is assumed to be the same export.
func shouldPull(entry *ftp.Entry, localDir string) bool {
	if entry.Type != ftp.EntryTypeFile {
		return false
	}
	info, err := os.Stat(filepath.Join(localDir, entry.Name))
	if err != nil {
		return true
	}
	return info.Size() != int64(entry.Size)
}

const maxDialAttempts = 3

// connect dials the server and logs in. Plant FTP boxes drop connections
// while an export is being written, so dial failures are retried with
// exponential backoff before giving up.
func (c *Client) connect(ctx context.Context) (*ftp.ServerConn, error) {
	backoff := 500 * time.Millisecond
	var conn *ftp.ServerConn
	for attempt := 1; ; attempt++ {
		var err error
		conn, err = ftp.Dial(c.addr(), ftp.DialWithTimeout(c.timeout()), ftp.DialWithContext(ctx))
		if err == nil {
			break
		}
		if attempt >= maxDialAttempts || ctx.Err() != nil {
			return nil, eris.Wrap(err, "feed: dial")
		}
		zap.L().Warn("feed dial failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if err := conn.Login(c.cfg.User, c.cfg.Password); err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "feed: login")
	}
	return conn, nil
}

// Pull connects to the drop directory and downloads every export file not
// already present locally. Files are never deleted from the server; the
// plant-control side owns retention.
func (c *Client) Pull(ctx context.Context) ([]PulledFile, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Quit()

	entries, err := conn.List(c.cfg.RemoteDir)
	if err != nil {
		return nil, eris.Wrap(err, "feed: list drop directory")
	}

	if err := os.MkdirAll(c.cfg.LocalDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "feed: create local directory")
	}

	var pulled []PulledFile
	for _, entry := range entries {
		if ctx.Err() != nil {
			return pulled, ctx.Err()
		}
		if !shouldPull(entry, c.cfg.LocalDir) {
			continue
		}

		localPath := filepath.Join(c.cfg.LocalDir, entry.Name)
		n, err := c.retrieve(conn, path.Join(c.cfg.RemoteDir, entry.Name), localPath)
		if err != nil {
			return pulled, eris.Wrapf(err, "feed: download %s", entry.Name)
		}

		zap.L().Info("feed file pulled",
			zap.String("file", entry.Name),
			zap.Int64("bytes", n),
		)
		pulled = append(pulled, PulledFile{Name: entry.Name, LocalPath: localPath, Size: n})
	}

	return pulled, nil
}

// retrieve downloads one remote file to a local path. Returns bytes written.
func (c *Client) retrieve(conn *ftp.ServerConn, remotePath, localPath string) (int64, error) {
	resp, err := conn.Retr(remotePath)
	if err != nil {
		return 0, eris.Wrap(err, "retrieve")
	}
	defer resp.Close()

	file, err := os.Create(localPath)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close()

	n, err := io.Copy(file, resp)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}
	return n, nil
}
